package model

import "time"

type Task struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	Title             string    `json:"title"`
	Completed         bool      `json:"completed"`
	EstimatedSessions int       `json:"estimatedSessions"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// SessionEstimate is the number of work sessions planned for the task.
func (t *Task) SessionEstimate() int {
	if t.EstimatedSessions <= 0 {
		return DefaultEstimatedSessions
	}
	return t.EstimatedSessions
}
