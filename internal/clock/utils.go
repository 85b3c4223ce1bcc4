package clock

import (
	"fmt"
	"time"
)

// FormatDuration formats a duration as MM:SS. Minutes are not wrapped at an
// hour, so 90 minutes renders as 90:00.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "00:00"
	}

	// Round to nearest second
	d = d.Round(time.Second)

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// FormatDurationString formats a duration as a compact label (e.g. "25m",
// "1h30m", "45s").
func FormatDurationString(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}

	// Round to nearest second
	d = d.Round(time.Second)

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}

	if minutes > 0 {
		if seconds > 0 {
			return fmt.Sprintf("%dm%ds", minutes, seconds)
		}
		return fmt.Sprintf("%dm", minutes)
	}

	return fmt.Sprintf("%ds", seconds)
}

// FormatTimeRemaining formats remaining time with context
func FormatTimeRemaining(remaining time.Duration) string {
	if remaining <= 0 {
		return "Time's up!"
	}

	return fmt.Sprintf("%s remaining", FormatDuration(remaining))
}

// Describe renders a one-line summary of the state for status surfaces.
func Describe(s State) string {
	switch s.Phase {
	case PhaseNotStarted:
		return "Ready to Start"
	case PhaseCompleted:
		return fmt.Sprintf("Completed %d/%d sessions (%s focus)", s.Session, s.TotalSessions, FormatDurationString(s.FocusCompleted))
	}

	label := "Work Session"
	if s.ActivePhase() == PhaseOnBreak {
		label = "Short Break"
		if s.IsLongBreak() {
			label = "Long Break"
		}
	}
	line := fmt.Sprintf("%s %d/%d (%s)", label, s.Session, s.TotalSessions, FormatDuration(s.Remaining))
	if s.Phase == PhasePaused {
		line += " paused"
	}
	return line
}
