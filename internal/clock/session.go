package clock

import "time"

// IsLongBreakSession reports whether the break following the given 1-based
// session is a long one.
func (s Settings) IsLongBreakSession(session int) bool {
	if s.SessionsUntilLongBreak < 1 {
		return false
	}
	return session%s.SessionsUntilLongBreak == 0
}

// BreakDurationFor returns the length of the break that follows session.
func (s Settings) BreakDurationFor(session int) time.Duration {
	if s.IsLongBreakSession(session) {
		return s.LongBreakDuration
	}
	return s.BreakDuration
}

// PhaseDuration returns the full length of phase during session. Phases that
// do not count down have no duration.
func (s Settings) PhaseDuration(phase Phase, session int) time.Duration {
	switch phase {
	case PhaseWorking:
		return s.WorkDuration
	case PhaseOnBreak:
		return s.BreakDurationFor(session)
	default:
		return 0
	}
}

// ProgressFraction returns how much of a phase has elapsed, in [0, 1]. A phase
// with no duration is treated as already complete.
func ProgressFraction(remaining, phaseDuration time.Duration) float64 {
	if phaseDuration <= 0 {
		return 1
	}
	fraction := 1 - float64(remaining)/float64(phaseDuration)
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}
