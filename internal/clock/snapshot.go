package clock

import (
	"fmt"
	"strconv"
	"time"
)

// Snapshot is the persisted run record. It is written on every state change
// and on suspension, and read back once when the process returns to the
// foreground.
type Snapshot struct {
	RunID             string
	Phase             Phase
	PausedFrom        Phase
	Session           int
	Remaining         time.Duration
	SuspendedAt       time.Time
	Subject           string
	FocusCompleted    time.Duration
	AccumulatedPaused time.Duration
	Settings          Settings
}

// Field names of the encoded record.
const (
	fieldRunID                  = "runId"
	fieldPhase                  = "phase"
	fieldPausedFrom             = "pausedFrom"
	fieldSession                = "session"
	fieldRemaining              = "remainingNs"
	fieldSuspendedAt            = "suspendedAt"
	fieldSubject                = "subject"
	fieldFocusCompleted         = "focusCompletedNs"
	fieldAccumulatedPaused      = "accumulatedPausedNs"
	fieldWorkDuration           = "workNs"
	fieldBreakDuration          = "breakNs"
	fieldLongBreakDuration      = "longBreakNs"
	fieldSessionsUntilLongBreak = "sessionsUntilLongBreak"
	fieldTotalSessions          = "totalSessions"
)

// Snapshot captures the run at now for persistence. Remaining is frozen at
// now and SuspendedAt carries only the wall-clock reading.
func (m *Machine) Snapshot(now time.Time) Snapshot {
	return Snapshot{
		RunID:             m.runID,
		Phase:             m.phase,
		PausedFrom:        m.pausedFrom,
		Session:           m.session,
		Remaining:         m.remainingAt(now),
		SuspendedAt:       wallClock(now),
		Subject:           m.subject,
		FocusCompleted:    m.focusBanked,
		AccumulatedPaused: m.accumulatedPaused,
		Settings:          m.settings,
	}
}

// Fields encodes the snapshot as a flat string map. Durations are stored in
// nanoseconds and the timestamp as RFC 3339 with nanoseconds so the record
// round-trips exactly.
func (s Snapshot) Fields() map[string]string {
	return map[string]string{
		fieldRunID:                  s.RunID,
		fieldPhase:                  string(s.Phase),
		fieldPausedFrom:             string(s.PausedFrom),
		fieldSession:                strconv.Itoa(s.Session),
		fieldRemaining:              strconv.FormatInt(int64(s.Remaining), 10),
		fieldSuspendedAt:            s.SuspendedAt.Format(time.RFC3339Nano),
		fieldSubject:                s.Subject,
		fieldFocusCompleted:         strconv.FormatInt(int64(s.FocusCompleted), 10),
		fieldAccumulatedPaused:      strconv.FormatInt(int64(s.AccumulatedPaused), 10),
		fieldWorkDuration:           strconv.FormatInt(int64(s.Settings.WorkDuration), 10),
		fieldBreakDuration:          strconv.FormatInt(int64(s.Settings.BreakDuration), 10),
		fieldLongBreakDuration:      strconv.FormatInt(int64(s.Settings.LongBreakDuration), 10),
		fieldSessionsUntilLongBreak: strconv.Itoa(s.Settings.SessionsUntilLongBreak),
		fieldTotalSessions:          strconv.Itoa(s.Settings.TotalSessions),
	}
}

// ParseSnapshot decodes a record produced by Fields. Any missing or
// unparsable field yields ErrCorruptSnapshot.
func ParseSnapshot(fields map[string]string) (Snapshot, error) {
	p := fieldParser{fields: fields}
	s := Snapshot{
		RunID:             fields[fieldRunID],
		Subject:           fields[fieldSubject],
		Session:           p.integer(fieldSession),
		Remaining:         p.nanos(fieldRemaining),
		FocusCompleted:    p.nanos(fieldFocusCompleted),
		AccumulatedPaused: p.nanos(fieldAccumulatedPaused),
		Settings: Settings{
			WorkDuration:           p.nanos(fieldWorkDuration),
			BreakDuration:          p.nanos(fieldBreakDuration),
			LongBreakDuration:      p.nanos(fieldLongBreakDuration),
			SessionsUntilLongBreak: p.integer(fieldSessionsUntilLongBreak),
			TotalSessions:          p.integer(fieldTotalSessions),
		},
	}
	s.SuspendedAt = p.timestamp(fieldSuspendedAt)
	s.Phase = p.phaseName(fieldPhase)
	if raw := fields[fieldPausedFrom]; raw != "" {
		s.PausedFrom = p.phaseName(fieldPausedFrom)
	}
	if p.err != nil {
		return Snapshot{}, p.err
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Validate checks the snapshot for internal consistency.
func (s Snapshot) Validate() error {
	if _, ok := ParsePhase(string(s.Phase)); !ok {
		return fmt.Errorf("%w: unknown phase %q", ErrCorruptSnapshot, s.Phase)
	}
	if s.Phase == PhaseNotStarted {
		return nil
	}
	if err := s.Settings.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if s.Session < 1 || s.Session > s.Settings.TotalSessions {
		return fmt.Errorf("%w: session %d is out of range [1, %d]", ErrCorruptSnapshot, s.Session, s.Settings.TotalSessions)
	}
	if s.Remaining < 0 || s.FocusCompleted < 0 || s.AccumulatedPaused < 0 {
		return fmt.Errorf("%w: negative duration", ErrCorruptSnapshot)
	}

	active := s.Phase
	if s.Phase == PhasePaused {
		if !s.PausedFrom.IsCounting() {
			return fmt.Errorf("%w: paused snapshot resumes into %q", ErrCorruptSnapshot, s.PausedFrom)
		}
		active = s.PausedFrom
	}
	// A run's last session ends in Completed, never in a break.
	if active == PhaseOnBreak && s.Session >= s.Settings.TotalSessions {
		return fmt.Errorf("%w: break after the last session %d", ErrCorruptSnapshot, s.Session)
	}
	if active.IsCounting() {
		if limit := s.Settings.PhaseDuration(active, s.Session); s.Remaining > limit {
			return fmt.Errorf("%w: remaining %v exceeds phase duration %v", ErrCorruptSnapshot, s.Remaining, limit)
		}
		if s.SuspendedAt.IsZero() {
			return fmt.Errorf("%w: missing suspension time", ErrCorruptSnapshot)
		}
	}
	return nil
}

type fieldParser struct {
	fields map[string]string
	err    error
}

func (p *fieldParser) raw(key string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v, ok := p.fields[key]
	if !ok {
		p.err = fmt.Errorf("%w: missing field %q", ErrCorruptSnapshot, key)
		return "", false
	}
	return v, true
}

func (p *fieldParser) integer(key string) int {
	v, ok := p.raw(key)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("%w: field %q: %v", ErrCorruptSnapshot, key, err)
	}
	return n
}

func (p *fieldParser) nanos(key string) time.Duration {
	v, ok := p.raw(key)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.err = fmt.Errorf("%w: field %q: %v", ErrCorruptSnapshot, key, err)
	}
	return time.Duration(n)
}

func (p *fieldParser) timestamp(key string) time.Time {
	v, ok := p.raw(key)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		p.err = fmt.Errorf("%w: field %q: %v", ErrCorruptSnapshot, key, err)
	}
	return t
}

func (p *fieldParser) phaseName(key string) Phase {
	v, ok := p.raw(key)
	if !ok {
		return ""
	}
	phase, known := ParsePhase(v)
	if !known {
		p.err = fmt.Errorf("%w: field %q: unknown phase %q", ErrCorruptSnapshot, key, v)
	}
	return phase
}
