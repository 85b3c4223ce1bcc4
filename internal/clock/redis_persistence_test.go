package clock

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const redisAddr = "localhost:6379"

// redisStore connects to a local Redis on a throwaway key, skipping the test
// when no server answers.
func redisStore(t *testing.T) *RedisPersistence {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		t.Skip("Redis not available, skipping test")
	}

	key := "focus:test:" + t.Name()
	t.Cleanup(func() {
		_ = client.Del(context.Background(), key).Err()
		_ = client.Close()
	})
	return NewRedisPersistenceWithClient(client, key)
}

func TestRedisPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := redisStore(t)

	_, err := store.LoadSnapshot(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	want := runningSnapshot(t)
	require.NoError(t, store.SaveSnapshot(ctx, want))

	got, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, want.SuspendedAt.Equal(got.SuspendedAt))
	got.SuspendedAt = want.SuspendedAt
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear(ctx))
	_, err = store.LoadSnapshot(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestRedisPersistenceCorruptHash(t *testing.T) {
	ctx := context.Background()
	store := redisStore(t)

	require.NoError(t, store.Client().HSet(ctx, store.key, "phase", "working").Err())
	_, err := store.LoadSnapshot(ctx)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestRedisResumeAfterSuspension(t *testing.T) {
	ctx := context.Background()
	store := redisStore(t)
	clk := newFakeClock()

	first := NewRegistry(WithClock(clk), WithSnapshotStore(store))
	_, err := first.Start(ctx, shortSettings(3), "")
	require.NoError(t, err)
	_, err = first.Pause(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Suspend(ctx))

	clk.Advance(24 * time.Hour)
	second := NewRegistry(WithClock(clk), WithSnapshotStore(store))
	report := second.Recover(ctx)
	require.NoError(t, report.Err)

	s := second.State()
	assert.Equal(t, PhasePaused, s.Phase)
	assert.Equal(t, 60*time.Second, s.Remaining)
}
