package clock

import (
	"fmt"
	"time"
)

// Settings is the immutable configuration a run is started with. Changes made
// by the settings provider after Start never reach an in-progress run.
type Settings struct {
	WorkDuration           time.Duration
	BreakDuration          time.Duration
	LongBreakDuration      time.Duration
	SessionsUntilLongBreak int
	TotalSessions          int
}

// DefaultSettings returns the classic 25/5/15 cadence with a long break after
// every fourth session and a four-session run.
func DefaultSettings() Settings {
	return Settings{
		WorkDuration:           25 * time.Minute,
		BreakDuration:          5 * time.Minute,
		LongBreakDuration:      15 * time.Minute,
		SessionsUntilLongBreak: 4,
		TotalSessions:          4,
	}
}

// Validate reports whether the settings can drive a run.
func (s Settings) Validate() error {
	switch {
	case s.WorkDuration <= 0:
		return fmt.Errorf("%w: work duration must be positive, got %v", ErrInvalidSettings, s.WorkDuration)
	case s.BreakDuration <= 0:
		return fmt.Errorf("%w: break duration must be positive, got %v", ErrInvalidSettings, s.BreakDuration)
	case s.LongBreakDuration <= 0:
		return fmt.Errorf("%w: long break duration must be positive, got %v", ErrInvalidSettings, s.LongBreakDuration)
	case s.SessionsUntilLongBreak < 1:
		return fmt.Errorf("%w: sessions until long break must be at least 1, got %d", ErrInvalidSettings, s.SessionsUntilLongBreak)
	case s.TotalSessions < 1:
		return fmt.Errorf("%w: total sessions must be at least 1, got %d", ErrInvalidSettings, s.TotalSessions)
	}
	return nil
}
