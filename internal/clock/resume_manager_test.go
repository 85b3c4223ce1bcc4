package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// suspendFor snapshots m, lets gap pass and recovers into a fresh machine.
func suspendFor(t *testing.T, clk *fakeClock, m *Machine, gap time.Duration) (*Machine, RecoveryReport) {
	t.Helper()
	snap := m.Snapshot(clk.Now())
	now := clk.Advance(gap)
	restored := NewMachine(clk)
	return restored, restored.Recover(snap, now)
}

func TestRecoverMatchesContinuousRun(t *testing.T) {
	gaps := []time.Duration{
		0,
		10 * time.Second,
		60 * time.Second,
		95 * time.Second,
		150 * time.Second,
		170 * time.Second,
		10 * time.Minute,
	}
	for _, gap := range gaps {
		t.Run(gap.String(), func(t *testing.T) {
			clk := newFakeClock()
			live := NewMachine(clk)
			_, err := live.Start(shortSettings(3), "")
			require.NoError(t, err)
			live.Tick(clk.Advance(15 * time.Second))

			suspended := live.Snapshot(clk.Now())
			now := clk.Advance(gap)
			live.Tick(now)

			restored := NewMachine(clk)
			report := restored.Recover(suspended, now)
			require.NoError(t, report.Err)

			want := live.State(now)
			got := restored.State(now)
			assert.Equal(t, want.Phase, got.Phase)
			assert.Equal(t, want.Session, got.Session)
			assert.Equal(t, want.Remaining, got.Remaining)
			assert.Equal(t, want.FocusCompleted, got.FocusCompleted)
			assert.Equal(t, want.RunID, got.RunID)
		})
	}
}

func TestRecoverCascadesToCompleted(t *testing.T) {
	clk := newFakeClock()
	m := NewMachine(clk)
	settings := shortSettings(2)
	settings.SessionsUntilLongBreak = 2
	_, err := m.Start(settings, "task-4")
	require.NoError(t, err)

	restored, report := suspendFor(t, clk, m, 200*time.Second)
	require.NoError(t, report.Err)
	assert.Equal(t, PhaseCompleted, report.Phase)
	assert.Equal(t, 3, report.Rollovers)
	assert.False(t, report.Capped)

	s := restored.State(clk.Now())
	assert.Equal(t, PhaseCompleted, s.Phase)
	assert.Equal(t, 2, s.Session)
	assert.Zero(t, s.Remaining)

	// Session 1 of a cadence of 2 takes the short break.
	var breakStarted Event
	for _, e := range report.Events {
		if e.Type == EventPhaseStarted && e.Phase == PhaseOnBreak {
			breakStarted = e
		}
	}
	assert.Equal(t, 30*time.Second, breakStarted.Duration)
	assert.False(t, breakStarted.LongBreak)

	last := report.Events[len(report.Events)-1]
	assert.Equal(t, EventRunCompleted, last.Type)
	assert.Equal(t, 120*time.Second, last.Duration)
	assert.Equal(t, "task-4", last.Subject)
}

func TestRecoverRejectsBreakAfterLastSession(t *testing.T) {
	clk := newFakeClock()
	snap := Snapshot{
		RunID:       "run-1",
		Phase:       PhaseOnBreak,
		Session:     2,
		Remaining:   10 * time.Second,
		SuspendedAt: clk.Now(),
		Settings:    shortSettings(2),
	}
	_, err := ParseSnapshot(snap.Fields())
	require.ErrorIs(t, err, ErrCorruptSnapshot)

	m := NewMachine(clk)
	report := m.Recover(snap, clk.Advance(20*time.Second))
	assert.ErrorIs(t, report.Err, ErrCorruptSnapshot)
	assert.Equal(t, PhaseNotStarted, m.Phase())
	assert.Zero(t, m.State(clk.Now()).Session)
}

func TestRecoverHugeGapStaysBounded(t *testing.T) {
	clk := newFakeClock()
	m := NewMachine(clk)
	settings := shortSettings(4)
	_, err := m.Start(settings, "")
	require.NoError(t, err)

	restored, report := suspendFor(t, clk, m, 365*24*time.Hour)
	assert.Equal(t, PhaseCompleted, restored.Phase())
	assert.LessOrEqual(t, report.Rollovers, 2*settings.TotalSessions)
	assert.Equal(t, settings.TotalSessions, restored.State(clk.Now()).Session)
}

func TestRecoverWithinPhase(t *testing.T) {
	clk := newFakeClock()
	m := NewMachine(clk)
	_, err := m.Start(shortSettings(2), "")
	require.NoError(t, err)
	clk.Advance(10 * time.Second)

	restored, report := suspendFor(t, clk, m, 20*time.Second)
	assert.Zero(t, report.Rollovers)
	assert.Empty(t, report.Events)
	assert.Equal(t, 20*time.Second, report.Elapsed)

	s := restored.State(clk.Now())
	assert.Equal(t, PhaseWorking, s.Phase)
	assert.Equal(t, 30*time.Second, s.Remaining)

	// The restored machine keeps counting in the foreground.
	events := restored.Tick(clk.Advance(30 * time.Second))
	assert.Equal(t, []EventType{EventPhaseCompleted, EventPhaseStarted}, eventTypes(events))
}

func TestRecoverClockAnomaly(t *testing.T) {
	clk := newFakeClock()
	m := NewMachine(clk)
	_, err := m.Start(shortSettings(2), "")
	require.NoError(t, err)
	clk.Advance(10 * time.Second)

	snap := m.Snapshot(clk.Now())
	snap.SuspendedAt = snap.SuspendedAt.Add(time.Hour)

	restored := NewMachine(clk)
	report := restored.Recover(snap, clk.Now())
	assert.True(t, report.Anomaly)
	assert.NoError(t, report.Err)
	assert.Zero(t, report.Elapsed)

	s := restored.State(clk.Now())
	assert.Equal(t, PhaseWorking, s.Phase)
	assert.Equal(t, 50*time.Second, s.Remaining)
}

func TestRecoverPausedVerbatim(t *testing.T) {
	clk := newFakeClock()
	m := NewMachine(clk)
	_, err := m.Start(shortSettings(2), "")
	require.NoError(t, err)
	clk.Advance(15 * time.Second)
	_, err = m.Pause()
	require.NoError(t, err)

	restored, report := suspendFor(t, clk, m, 48*time.Hour)
	assert.Equal(t, PhasePaused, report.Phase)

	s := restored.State(clk.Now())
	assert.Equal(t, PhasePaused, s.Phase)
	assert.Equal(t, PhaseWorking, s.PausedFrom)
	assert.Equal(t, 45*time.Second, s.Remaining)

	clk.Advance(time.Minute)
	_, err = restored.Resume()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, restored.State(clk.Now()).Remaining)
}

func TestRecoverCompletedAndNotStartedVerbatim(t *testing.T) {
	clk := newFakeClock()

	idle := NewMachine(clk)
	restored, report := suspendFor(t, clk, idle, time.Hour)
	assert.Equal(t, PhaseNotStarted, report.Phase)
	assert.NoError(t, report.Err)
	assert.Equal(t, PhaseNotStarted, restored.Phase())

	done := NewMachine(clk)
	_, err := done.Start(shortSettings(1), "")
	require.NoError(t, err)
	done.Tick(clk.Advance(time.Minute))
	require.Equal(t, PhaseCompleted, done.Phase())

	restored, report = suspendFor(t, clk, done, time.Hour)
	assert.Equal(t, PhaseCompleted, report.Phase)
	assert.Empty(t, report.Events)
	assert.Equal(t, 60*time.Second, restored.State(clk.Now()).FocusCompleted)
}

func TestRecoverCorruptSnapshotStartsFresh(t *testing.T) {
	clk := newFakeClock()
	m := NewMachine(clk)
	_, err := m.Start(shortSettings(2), "")
	require.NoError(t, err)

	snap := m.Snapshot(clk.Now())
	snap.Session = 7

	restored := NewMachine(clk)
	report := restored.Recover(snap, clk.Now())
	assert.ErrorIs(t, report.Err, ErrCorruptSnapshot)
	assert.Equal(t, PhaseNotStarted, restored.Phase())
	assert.Contains(t, report.String(), "discarded")
}
