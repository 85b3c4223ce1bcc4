package clock

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsLongBreakSession(t *testing.T) {
	s := DefaultSettings()
	tests := []struct {
		session int
		want    bool
	}{
		{1, false},
		{2, false},
		{3, false},
		{4, true},
		{5, false},
		{8, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.IsLongBreakSession(tt.session), "session %d", tt.session)
	}

	every := s
	every.SessionsUntilLongBreak = 1
	assert.True(t, every.IsLongBreakSession(1))
	assert.True(t, every.IsLongBreakSession(3))
}

func TestBreakDurationFor(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, 5*time.Minute, s.BreakDurationFor(1))
	assert.Equal(t, 5*time.Minute, s.BreakDurationFor(3))
	assert.Equal(t, 15*time.Minute, s.BreakDurationFor(4))
}

func TestPhaseDuration(t *testing.T) {
	s := DefaultSettings()
	tests := []struct {
		name    string
		phase   Phase
		session int
		want    time.Duration
	}{
		{"work", PhaseWorking, 1, 25 * time.Minute},
		{"short break", PhaseOnBreak, 2, 5 * time.Minute},
		{"long break", PhaseOnBreak, 4, 15 * time.Minute},
		{"paused has none", PhasePaused, 1, 0},
		{"not started has none", PhaseNotStarted, 0, 0},
		{"completed has none", PhaseCompleted, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.PhaseDuration(tt.phase, tt.session))
		})
	}
}

func TestProgressFraction(t *testing.T) {
	tests := []struct {
		name      string
		remaining time.Duration
		duration  time.Duration
		want      float64
	}{
		{"fresh", 60 * time.Second, 60 * time.Second, 0},
		{"half", 30 * time.Second, 60 * time.Second, 0.5},
		{"done", 0, 60 * time.Second, 1},
		{"zero duration", 0, 0, 1},
		{"negative duration", 10 * time.Second, -time.Second, 1},
		{"remaining above duration clamps", 90 * time.Second, 60 * time.Second, 0},
		{"negative remaining clamps", -10 * time.Second, 60 * time.Second, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ProgressFraction(tt.remaining, tt.duration), 1e-9)
		})
	}
}

func TestSettingsValidate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())

	mutations := map[string]func(*Settings){
		"work":       func(s *Settings) { s.WorkDuration = 0 },
		"break":      func(s *Settings) { s.BreakDuration = -time.Second },
		"long break": func(s *Settings) { s.LongBreakDuration = 0 },
		"cadence":    func(s *Settings) { s.SessionsUntilLongBreak = 0 },
		"total":      func(s *Settings) { s.TotalSessions = 0 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			s := DefaultSettings()
			mutate(&s)
			err := s.Validate()
			assert.True(t, errors.Is(err, ErrInvalidSettings), "got %v", err)
		})
	}
}
