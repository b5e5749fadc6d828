package timer

import (
	"math"
	"time"
)

// AccumulatePause adds the gap between pausedAt and now, rounded up to whole
// seconds, to the paused total. A clock that moved backwards adds nothing.
func AccumulatePause(totalPausedSeconds float64, pausedAt, now time.Time) float64 {
	gap := math.Ceil(float64(now.Sub(pausedAt)) / float64(time.Second))
	if gap < 0 || math.IsNaN(gap) {
		gap = 0
	}
	return sanitizeSeconds(totalPausedSeconds) + gap
}
