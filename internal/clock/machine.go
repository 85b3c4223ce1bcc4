package clock

import (
	"time"

	"github.com/google/uuid"
)

// Machine is the timer state machine. It is not safe for concurrent use; the
// Registry serializes every call.
//
// While counting, the remaining time is derived from anchor and lastResumeAt
// rather than decremented per tick, so ticks may be redundant or missed.
type Machine struct {
	clock    Clock
	newRunID func() string

	settings   Settings
	runID      string
	subject    string
	phase      Phase
	pausedFrom Phase
	session    int

	// anchor is the remaining time measured at lastResumeAt. While paused it
	// holds the frozen remaining time.
	anchor            time.Duration
	lastResumeAt      time.Time
	pausedAt          time.Time
	accumulatedPaused time.Duration

	// focusBanked is the work time of finished work phases in this run.
	focusBanked time.Duration
}

// NewMachine creates a machine in the NotStarted phase.
func NewMachine(clock Clock) *Machine {
	if clock == nil {
		clock = SystemClock
	}
	return &Machine{
		clock:    clock,
		newRunID: uuid.NewString,
		phase:    PhaseNotStarted,
	}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// Start begins a new run with session 1 in the Working phase. It replaces a
// Completed run; any other live run must be stopped first.
func (m *Machine) Start(settings Settings, subject string) ([]Event, error) {
	if !m.phase.CanStart() {
		return nil, rejected(CommandStart, m.phase)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	now := m.clock.Now()
	m.reset()
	m.settings = settings
	m.runID = m.newRunID()
	m.subject = subject
	m.session = 1
	m.phase = PhaseWorking
	m.anchor = settings.WorkDuration
	m.lastResumeAt = now

	return []Event{m.phaseStarted(now)}, nil
}

// Pause freezes the countdown. Pausing a paused run is a no-op.
func (m *Machine) Pause() ([]Event, error) {
	if m.phase == PhasePaused {
		return nil, nil
	}
	now := m.clock.Now()
	events := m.Tick(now)
	if !m.phase.CanPause() {
		return events, rejected(CommandPause, m.phase)
	}

	m.anchor = m.remainingAt(now)
	m.pausedFrom = m.phase
	m.phase = PhasePaused
	m.pausedAt = now
	return events, nil
}

// Resume continues the phase that was active before the pause.
func (m *Machine) Resume() ([]Event, error) {
	if m.phase != PhasePaused {
		return nil, rejected(CommandResume, m.phase)
	}

	now := m.clock.Now()
	if paused := now.Sub(m.pausedAt); paused > 0 {
		m.accumulatedPaused += paused
	}
	m.phase = m.pausedFrom
	m.pausedFrom = ""
	m.pausedAt = time.Time{}
	m.lastResumeAt = now
	return nil, nil
}

// Skip completes the current phase immediately and rolls over.
func (m *Machine) Skip() ([]Event, error) {
	now := m.clock.Now()
	events := m.Tick(now)
	if !m.phase.CanSkip() {
		return events, rejected(CommandSkip, m.phase)
	}

	spent := m.settings.PhaseDuration(m.phase, m.session) - m.remainingAt(now)
	return append(events, m.rollover(now, spent, true)...), nil
}

// Stop ends the run and resets to NotStarted. A live run reports its focus
// time through an EventRunStopped; a Completed run already reported and is
// simply cleared. Stopping a NotStarted machine is a no-op.
func (m *Machine) Stop() ([]Event, error) {
	if !m.phase.CanStop() {
		return nil, nil
	}
	if m.phase == PhaseCompleted {
		m.reset()
		return nil, nil
	}

	now := m.clock.Now()
	events := m.Tick(now)
	if m.phase != PhaseCompleted {
		events = append(events, Event{
			Type:     EventRunStopped,
			RunID:    m.runID,
			Phase:    m.phase,
			Session:  m.session,
			Subject:  m.subject,
			Duration: m.focusAt(now),
			At:       now,
		})
	}
	m.reset()
	return events, nil
}

// Tick recomputes the countdown at now and rolls over every phase that has
// run out, carrying any overshoot into the following phases.
func (m *Machine) Tick(now time.Time) []Event {
	if !m.phase.IsCounting() {
		return nil
	}
	elapsed := now.Sub(m.lastResumeAt)
	if elapsed < m.anchor {
		return nil
	}
	events, _, _ := m.consume(elapsed, now)
	return events
}

// State returns a snapshot of the run as of now.
func (m *Machine) State(now time.Time) State {
	remaining := m.remainingAt(now)
	duration := m.phaseDuration()
	state := State{
		RunID:             m.runID,
		Phase:             m.phase,
		PausedFrom:        m.pausedFrom,
		Session:           m.session,
		TotalSessions:     m.settings.TotalSessions,
		Remaining:         remaining,
		PhaseDuration:     duration,
		Subject:           m.subject,
		LastResumeAt:      m.lastResumeAt,
		AccumulatedPaused: m.accumulatedPaused,
		FocusCompleted:    m.focusAt(now),
		Settings:          m.settings,
		At:                now,
	}
	switch m.phase {
	case PhaseNotStarted:
		state.Progress = 0
	case PhaseCompleted:
		state.Progress = 1
	default:
		state.Progress = ProgressFraction(remaining, duration)
	}
	return state
}

// consume burns elapsed time across the current phase and as many following
// phases as it covers. The loop stops at Completed or after 2*TotalSessions
// rollovers, whichever is first; leftover time is then discarded.
func (m *Machine) consume(elapsed time.Duration, now time.Time) (events []Event, rollovers int, capped bool) {
	limit := 2 * m.settings.TotalSessions
	for m.phase.IsCounting() && elapsed >= m.anchor {
		if rollovers >= limit {
			capped = true
			elapsed = 0
			break
		}
		elapsed -= m.anchor
		events = append(events, m.rollover(now, m.settings.PhaseDuration(m.phase, m.session), false)...)
		rollovers++
	}
	if m.phase.IsCounting() {
		m.anchor -= elapsed
		m.lastResumeAt = now
	}
	return events, rollovers, capped
}

// rollover finishes the current counting phase and enters the next one.
// Reaching TotalSessions finished work phases is terminal: no trailing break.
func (m *Machine) rollover(now time.Time, spent time.Duration, skipped bool) []Event {
	if spent < 0 {
		spent = 0
	}
	finished := m.phase
	events := []Event{{
		Type:      EventPhaseCompleted,
		RunID:     m.runID,
		Phase:     finished,
		Session:   m.session,
		Subject:   m.subject,
		Duration:  spent,
		LongBreak: finished == PhaseOnBreak && m.settings.IsLongBreakSession(m.session),
		Skipped:   skipped,
		At:        now,
	}}

	switch finished {
	case PhaseWorking:
		m.focusBanked += spent
		if m.session >= m.settings.TotalSessions {
			return append(events, m.complete(now))
		}
		m.phase = PhaseOnBreak
		m.anchor = m.settings.BreakDurationFor(m.session)
	case PhaseOnBreak:
		if m.session >= m.settings.TotalSessions {
			return append(events, m.complete(now))
		}
		m.session++
		m.phase = PhaseWorking
		m.anchor = m.settings.WorkDuration
	}

	m.lastResumeAt = now
	m.accumulatedPaused = 0
	return append(events, m.phaseStarted(now))
}

// complete ends the run at the last session.
func (m *Machine) complete(now time.Time) Event {
	m.session = m.settings.TotalSessions
	m.phase = PhaseCompleted
	m.anchor = 0
	m.accumulatedPaused = 0
	return Event{
		Type:     EventRunCompleted,
		RunID:    m.runID,
		Phase:    PhaseCompleted,
		Session:  m.session,
		Subject:  m.subject,
		Duration: m.focusBanked,
		At:       now,
	}
}

func (m *Machine) phaseStarted(now time.Time) Event {
	return Event{
		Type:      EventPhaseStarted,
		RunID:     m.runID,
		Phase:     m.phase,
		Session:   m.session,
		Subject:   m.subject,
		Duration:  m.anchor,
		LongBreak: m.phase == PhaseOnBreak && m.settings.IsLongBreakSession(m.session),
		At:        now,
	}
}

func (m *Machine) remainingAt(now time.Time) time.Duration {
	if !m.phase.IsCounting() {
		return m.anchor
	}
	elapsed := now.Sub(m.lastResumeAt)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed >= m.anchor {
		return 0
	}
	return m.anchor - elapsed
}

func (m *Machine) phaseDuration() time.Duration {
	phase := m.phase
	if phase == PhasePaused {
		phase = m.pausedFrom
	}
	return m.settings.PhaseDuration(phase, m.session)
}

// focusAt is the banked work time plus the worked part of the current work
// phase.
func (m *Machine) focusAt(now time.Time) time.Duration {
	focus := m.focusBanked
	working := m.phase == PhaseWorking || (m.phase == PhasePaused && m.pausedFrom == PhaseWorking)
	if working {
		if partial := m.settings.WorkDuration - m.remainingAt(now); partial > 0 {
			focus += partial
		}
	}
	return focus
}

func (m *Machine) reset() {
	m.settings = Settings{}
	m.runID = ""
	m.subject = ""
	m.phase = PhaseNotStarted
	m.pausedFrom = ""
	m.session = 0
	m.anchor = 0
	m.lastResumeAt = time.Time{}
	m.pausedAt = time.Time{}
	m.accumulatedPaused = 0
	m.focusBanked = 0
}
