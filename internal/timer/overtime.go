package timer

import "fmt"

const (
	// OvertimeAutoPauseSeconds is the overtime at which a running session is
	// force-paused.
	OvertimeAutoPauseSeconds = 900
	OvertimeReminderMinutes  = 5
)

// guard applies the overtime rules to a running session. It reports whether
// it paused the session.
func (m *Machine) guard(t *txn, remaining int) bool {
	if m.state.OvertimeAcknowledged {
		return false
	}
	overtime := OvertimeSeconds(remaining)
	if overtime == 0 {
		return false
	}

	if overtime >= OvertimeAutoPauseSeconds && m.state.OvertimeAutoPaused == nil {
		now := t.now
		m.state.IsRunning = false
		m.state.PausedAt = &now
		m.state.TimeLeft = remaining
		m.state.OvertimeAutoPaused = &OvertimeRecord{
			SessionType:     m.state.SessionType,
			TriggeredAt:     now,
			OvertimeSeconds: overtime,
		}
		minutes := overtime / 60
		if m.state.SessionType.IsBreak() {
			m.notice(t, KindOvertimeAutoPaused, "Break Auto-Paused",
				fmt.Sprintf("Your break ran %d minutes over and has been paused.", minutes), SoundBreakOvertimeReminder)
		} else {
			m.notice(t, KindOvertimeAutoPaused, "Session Auto-Paused",
				fmt.Sprintf("You have been in overtime for %d minutes. The session has been paused.", minutes), SoundOvertimeReminder)
		}
		m.logger.Info("overtime auto-pause", "task", m.state.TaskID, "overtime_seconds", overtime)
		t.mark(true)
		return true
	}

	minutes := overtime / 60
	if minutes > 0 && minutes%OvertimeReminderMinutes == 0 &&
		minutes*60 < OvertimeAutoPauseSeconds && minutes != m.reminderMinute {
		m.reminderMinute = minutes
		if m.state.SessionType.IsBreak() {
			m.notice(t, KindOvertimeReminder, "Break Overtime",
				fmt.Sprintf("Your break is %d minutes over.", minutes), SoundBreakOvertimeReminder)
		} else {
			m.notice(t, KindOvertimeReminder, "Overtime",
				fmt.Sprintf("You are %d minutes into overtime. Consider wrapping up.", minutes), SoundOvertimeReminder)
		}
	}
	return false
}
