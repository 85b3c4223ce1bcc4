package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"focusService/internal/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)
	assert.Equal(t, clock.DefaultSettings(), s)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("work_minutes: 50\ntotal_sessions: 2\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Minute, s.WorkDuration)
	assert.Equal(t, 5*time.Minute, s.BreakDuration)
	assert.Equal(t, 2, s.TotalSessions)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("work_minutes: [\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.yaml")
	p, err := NewProvider(path)
	require.NoError(t, err)

	want := clock.Settings{
		WorkDuration:           45 * time.Minute,
		BreakDuration:          10 * time.Minute,
		LongBreakDuration:      30 * time.Minute,
		SessionsUntilLongBreak: 3,
		TotalSessions:          6,
	}
	require.NoError(t, p.Save(want))
	assert.Equal(t, want, p.Current())

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Error(t, p.Save(clock.Settings{}))
	assert.Equal(t, want, p.Current())
}

func TestWatchReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	p, err := NewProvider(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan clock.Settings, 4)
	done := make(chan error, 1)
	go func() {
		done <- p.Watch(ctx, func(s clock.Settings) { changes <- s })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("work_minutes: 30\n"), 0o644))

	select {
	case s := <-changes:
		assert.Equal(t, 30*time.Minute, s.WorkDuration)
	case <-time.After(3 * time.Second):
		t.Fatal("settings change was not observed")
	}
	assert.Equal(t, 30*time.Minute, p.Current().WorkDuration)

	cancel()
	assert.NoError(t, <-done)
}

func TestWatchCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh", "focus", "settings.yaml")
	p, err := NewProvider(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan clock.Settings, 4)
	done := make(chan error, 1)
	go func() {
		done <- p.Watch(ctx, func(s clock.Settings) { changes <- s })
	}()

	time.Sleep(100 * time.Millisecond)
	want := clock.DefaultSettings()
	want.WorkDuration = 45 * time.Minute
	require.NoError(t, p.Save(want))

	select {
	case s := <-changes:
		assert.Equal(t, 45*time.Minute, s.WorkDuration)
	case err := <-done:
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("settings file created after start was not observed")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestDefaultPath(t *testing.T) {
	path, err := DefaultPath("focus")
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	assert.Equal(t, "settings.yaml", filepath.Base(path))
	assert.Equal(t, "focus", filepath.Base(filepath.Dir(path)))
}
