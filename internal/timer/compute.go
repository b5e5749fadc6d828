// Package timer implements the focus-session engine: drift-free remaining
// time, pause accounting, the session state machine and the overtime guard.
//
// Remaining time is always derived from the session's start instant, its
// configured duration and the accumulated paused seconds. No ticking counter
// is ever used as a source of truth.
package timer

import (
	"encoding/json"
	"math"
	"time"
)

// SanitizePausedSeconds coerces an arbitrary decoded value into a finite,
// non-negative number of seconds. Anything else becomes zero.
func SanitizePausedSeconds(value any) float64 {
	switch v := value.(type) {
	case float64:
		return sanitizeSeconds(v)
	case float32:
		return sanitizeSeconds(float64(v))
	case int:
		return sanitizeSeconds(float64(v))
	case int64:
		return sanitizeSeconds(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return sanitizeSeconds(f)
	default:
		return 0
	}
}

func sanitizeSeconds(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// ComputeRemainingSeconds returns the signed number of seconds left in a
// session. Negative values mean overtime.
//
// While paused (isRunning false with a pause instant) the pause instant stands
// in for now, so the frozen value equals what was shown when the pause began.
// Positive values round up while running and to nearest while paused; negative
// values round down.
func ComputeRemainingSeconds(startedAt time.Time, durationMinutes int, totalPausedSeconds float64, isRunning bool, pausedAt *time.Time, now time.Time) int {
	if durationMinutes < 0 {
		durationMinutes = 0
	}

	effectiveNow := now
	if !isRunning && pausedAt != nil && !pausedAt.IsZero() {
		effectiveNow = *pausedAt
	}

	elapsed := effectiveNow.Sub(startedAt).Seconds() - sanitizeSeconds(totalPausedSeconds)
	raw := float64(durationMinutes*60) - elapsed

	switch {
	case raw > 0:
		if isRunning {
			return int(math.Ceil(raw))
		}
		return int(math.Round(raw))
	case raw < 0:
		return int(math.Floor(raw))
	default:
		return 0
	}
}

// OvertimeSeconds is the positive overtime for a remaining value.
func OvertimeSeconds(remaining int) int {
	if remaining >= 0 {
		return 0
	}
	return -remaining
}
