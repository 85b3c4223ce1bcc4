package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runningSnapshot(t *testing.T) Snapshot {
	t.Helper()
	clk := newFakeClock()
	m := NewMachine(clk)
	_, err := m.Start(DefaultSettings(), "task-42")
	require.NoError(t, err)
	m.Tick(clk.Advance(25*time.Minute + 90*time.Second + 123*time.Millisecond))
	return m.Snapshot(clk.Now())
}

func TestSnapshotFieldsRoundTrip(t *testing.T) {
	want := runningSnapshot(t)
	require.Equal(t, PhaseOnBreak, want.Phase)

	got, err := ParseSnapshot(want.Fields())
	require.NoError(t, err)
	assert.True(t, want.SuspendedAt.Equal(got.SuspendedAt))
	got.SuspendedAt = want.SuspendedAt
	assert.Equal(t, want, got)
}

func TestParseSnapshotRejectsBrokenRecords(t *testing.T) {
	base := runningSnapshot(t).Fields()

	tests := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"missing phase", func(f map[string]string) { delete(f, fieldPhase) }},
		{"unknown phase", func(f map[string]string) { f[fieldPhase] = "napping" }},
		{"bad session", func(f map[string]string) { f[fieldSession] = "two" }},
		{"bad remaining", func(f map[string]string) { f[fieldRemaining] = "1.5" }},
		{"bad timestamp", func(f map[string]string) { f[fieldSuspendedAt] = "yesterday" }},
		{"session out of range", func(f map[string]string) { f[fieldSession] = "9" }},
		{"remaining beyond phase", func(f map[string]string) { f[fieldRemaining] = "999999999999999" }},
		{"negative focus", func(f map[string]string) { f[fieldFocusCompleted] = "-1" }},
		{"paused from nowhere", func(f map[string]string) {
			f[fieldPhase] = string(PhasePaused)
			f[fieldPausedFrom] = string(PhaseCompleted)
		}},
		{"break after last session", func(f map[string]string) { f[fieldSession] = f[fieldTotalSessions] }},
		{"paused break after last session", func(f map[string]string) {
			f[fieldPhase] = string(PhasePaused)
			f[fieldPausedFrom] = string(PhaseOnBreak)
			f[fieldSession] = f[fieldTotalSessions]
		}},
		{"zero settings", func(f map[string]string) { f[fieldWorkDuration] = "0" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := make(map[string]string, len(base))
			for k, v := range base {
				fields[k] = v
			}
			tt.mutate(fields)

			_, err := ParseSnapshot(fields)
			assert.ErrorIs(t, err, ErrCorruptSnapshot)
		})
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.LoadSnapshot(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	want := runningSnapshot(t)
	require.NoError(t, store.SaveSnapshot(ctx, want))
	got, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Remaining, got.Remaining)
	assert.Equal(t, want.Phase, got.Phase)

	store.SetFields(map[string]string{fieldPhase: string(PhaseWorking)})
	_, err = store.LoadSnapshot(ctx)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
	assert.NoError(t, store.Close())
}
