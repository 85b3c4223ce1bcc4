package clock

import (
	"fmt"
	"log"
	"time"
)

// RecoveryReport describes what Recover did with a snapshot.
type RecoveryReport struct {
	Phase     Phase
	Elapsed   time.Duration
	Rollovers int
	Events    []Event
	// Anomaly is set when the wall clock moved backwards across the
	// suspension; the gap was treated as zero.
	Anomaly bool
	// Capped is set when the rollover bound stopped the replay.
	Capped bool
	// Err holds ErrCorruptSnapshot or a load failure when the snapshot was
	// discarded. It is informational: the machine is always usable.
	Err error
}

// Recover replaces the machine state with snap and reconciles the time spent
// suspended between snap.SuspendedAt and now as a single analytic jump.
// Paused, NotStarted and Completed runs are restored verbatim. A snapshot that
// fails validation leaves the machine in NotStarted.
func (m *Machine) Recover(snap Snapshot, now time.Time) RecoveryReport {
	m.reset()
	if err := snap.Validate(); err != nil {
		log.Printf("⚠️ Discarding snapshot: %v", err)
		return RecoveryReport{Phase: PhaseNotStarted, Err: err}
	}
	if snap.Phase == PhaseNotStarted {
		return RecoveryReport{Phase: PhaseNotStarted}
	}

	m.settings = snap.Settings
	m.runID = snap.RunID
	m.subject = snap.Subject
	m.phase = snap.Phase
	m.pausedFrom = snap.PausedFrom
	m.session = snap.Session
	m.anchor = snap.Remaining
	m.focusBanked = snap.FocusCompleted
	m.accumulatedPaused = snap.AccumulatedPaused
	m.lastResumeAt = now

	switch snap.Phase {
	case PhasePaused:
		m.pausedAt = now
		log.Printf("⏸️ Restored paused session %d/%d with %v remaining", m.session, m.settings.TotalSessions, m.anchor)
		return RecoveryReport{Phase: m.phase}
	case PhaseCompleted:
		m.anchor = 0
		return RecoveryReport{Phase: m.phase}
	}

	report := RecoveryReport{}
	elapsed := wallClock(now).Sub(snap.SuspendedAt)
	if elapsed < 0 {
		log.Printf("⚠️ %v: wall clock is %v behind the suspension time, treating gap as zero", ErrClockAnomaly, -elapsed)
		report.Anomaly = true
		elapsed = 0
	}
	report.Elapsed = elapsed

	report.Events, report.Rollovers, report.Capped = m.consume(elapsed, now)
	if report.Capped {
		log.Printf("⚠️ Recovery stopped after %d rollovers; discarding the rest of the gap", report.Rollovers)
	}
	report.Phase = m.phase

	log.Printf("▶️ Recovered after %v suspended: %d rollovers, now %s session %d/%d with %v remaining",
		elapsed, report.Rollovers, m.phase, m.session, m.settings.TotalSessions, m.remainingAt(now))
	return report
}

// String summarises the report for logs and the CLI.
func (r RecoveryReport) String() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("snapshot discarded (%v)", r.Err)
	case r.Rollovers > 0:
		return fmt.Sprintf("caught up %d phases over %v, now %s", r.Rollovers, r.Elapsed.Round(time.Second), r.Phase)
	default:
		return fmt.Sprintf("restored %s", r.Phase)
	}
}
