package clock

import "time"

// Phase is one of the mutually exclusive engine states.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseWorking    Phase = "working"
	PhaseOnBreak    Phase = "on_break"
	PhasePaused     Phase = "paused"
	PhaseCompleted  Phase = "completed"
)

var phaseByName = map[string]Phase{
	string(PhaseNotStarted): PhaseNotStarted,
	string(PhaseWorking):    PhaseWorking,
	string(PhaseOnBreak):    PhaseOnBreak,
	string(PhasePaused):     PhasePaused,
	string(PhaseCompleted):  PhaseCompleted,
}

// ParsePhase maps a persisted phase name back to a Phase.
func ParsePhase(name string) (Phase, bool) {
	p, ok := phaseByName[name]
	return p, ok
}

func (p Phase) String() string {
	return string(p)
}

// IsCounting returns true for the phases whose remaining time decreases.
func (p Phase) IsCounting() bool {
	return p == PhaseWorking || p == PhaseOnBreak
}

// CanStart returns true if a new run may be started from p.
func (p Phase) CanStart() bool {
	return p == PhaseNotStarted || p == PhaseCompleted
}

// CanPause returns true if p may be paused.
func (p Phase) CanPause() bool {
	return p.IsCounting()
}

// CanSkip returns true if the current phase of p may be skipped.
func (p Phase) CanSkip() bool {
	return p.IsCounting()
}

// CanStop returns true if there is anything to stop.
func (p Phase) CanStop() bool {
	return p != PhaseNotStarted
}

// State is a read-only view of the run handed to observers. It is a value:
// mutating it has no effect on the engine.
type State struct {
	RunID             string
	Phase             Phase
	PausedFrom        Phase
	Session           int
	TotalSessions     int
	Remaining         time.Duration
	PhaseDuration     time.Duration
	Progress          float64
	Subject           string
	LastResumeAt      time.Time
	AccumulatedPaused time.Duration
	FocusCompleted    time.Duration
	Settings          Settings
	At                time.Time
}

// ActivePhase returns the counting phase the run is in, looking through a
// pause.
func (s State) ActivePhase() Phase {
	if s.Phase == PhasePaused {
		return s.PausedFrom
	}
	return s.Phase
}

// IsLongBreak reports whether the run is in (or paused during) a long break.
func (s State) IsLongBreak() bool {
	return s.ActivePhase() == PhaseOnBreak && s.Settings.IsLongBreakSession(s.Session)
}

// HasActiveRun reports whether a surface should render a run indicator.
func (s State) HasActiveRun() bool {
	return s.Phase != PhaseNotStarted
}
