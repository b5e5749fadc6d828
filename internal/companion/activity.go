package companion

import (
	"focusboard/backend/internal/model"
	"focusboard/backend/internal/timer"
)

type Activity string

const (
	ActivityIdle     Activity = "idle"
	ActivityFocus    Activity = "focus"
	ActivityBreak    Activity = "break"
	ActivityPaused   Activity = "paused"
	ActivityComplete Activity = "complete"
)

// ActivityOf maps a snapshot to what the device should show.
func ActivityOf(snap timer.Snapshot) Activity {
	switch snap.Phase {
	case timer.PhaseRunning:
		if snap.SessionType == model.SessionWork {
			return ActivityFocus
		}
		return ActivityBreak
	case timer.PhaseJustCompleted, timer.PhaseTaskComplete:
		return ActivityComplete
	case timer.PhasePaused, timer.PhaseOvertimeAutoPaused:
		return ActivityPaused
	default:
		return ActivityIdle
	}
}

// Command is one animation push.
type Command struct {
	Activity  Activity
	Animation string
	Task      string
}

// CommandFor builds the animation for an activity. title is the current
// task's title and may be empty.
func CommandFor(activity Activity, snap timer.Snapshot, title string) Command {
	cmd := Command{Activity: activity}
	switch activity {
	case ActivityFocus:
		cmd.Animation = "pomodoro"
		cmd.Task = title
		if cmd.Task == "" {
			cmd.Task = "Focus Session"
		}
	case ActivityBreak:
		cmd.Animation = "idle"
		cmd.Task = "Break Time"
	case ActivityComplete:
		cmd.Animation = "complete"
		switch {
		case snap.SessionType.IsBreak():
			cmd.Task = "Break Complete!"
		case title != "":
			cmd.Task = title
		default:
			cmd.Task = "Task Complete!"
		}
	case ActivityPaused:
		cmd.Animation = "idle"
		cmd.Task = "Paused"
	default:
		cmd.Animation = "idle"
	}
	return cmd
}
