package timer

import (
	"context"
	"time"
)

// RewindTo moves the current session's start so that remaining seconds read
// exactly remaining at the machine clock. It exists for manual testing of the
// zero crossing and the overtime guard.
func (m *Machine) RewindTo(ctx context.Context, remaining int) error {
	return m.run(ctx, "debug_rewind", m.clock.Now(), func(t *txn) {
		if m.state.CurrentSession == nil {
			return
		}
		paused := sanitizeSeconds(m.state.TotalPausedSeconds)
		elapsed := float64(m.state.CurrentSession.Duration*60-remaining) + paused
		m.state.CurrentSession.Started = t.now.Add(-time.Duration(elapsed * float64(time.Second)))
		m.state.TotalPausedSeconds = paused
		m.state.IsRunning = true
		m.state.PausedAt = nil
		m.state.OvertimeAutoPaused = nil
		m.state.OvertimeAcknowledged = false
		m.state.TimeLeft = remaining
		overtimeMinutes := OvertimeSeconds(remaining) / 60
		m.reminderMinute = overtimeMinutes - overtimeMinutes%OvertimeReminderMinutes
		t.mark(true)
	})
}
