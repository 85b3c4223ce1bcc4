package clock

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// DefaultSnapshotKey is the hash the run snapshot is stored under.
const DefaultSnapshotKey = "focus:snapshot"

// RedisPersistence stores the run snapshot as a Redis hash.
type RedisPersistence struct {
	client *redis.Client
	key    string
}

// NewRedisPersistence connects to Redis at addr and verifies the connection.
func NewRedisPersistence(ctx context.Context, addr string) (*RedisPersistence, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("✅ Connected to Redis at %s", addr)
	return NewRedisPersistenceWithClient(client, DefaultSnapshotKey), nil
}

// NewRedisPersistenceWithClient wraps an existing client. The store takes
// ownership of the client and closes it on Close.
func NewRedisPersistenceWithClient(client *redis.Client, key string) *RedisPersistence {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &RedisPersistence{client: client, key: key}
}

// Client exposes the underlying connection so other components can share it.
func (rp *RedisPersistence) Client() *redis.Client {
	return rp.client
}

// Close closes the Redis connection
func (rp *RedisPersistence) Close() error {
	return rp.client.Close()
}

// SaveSnapshot replaces the stored hash atomically so fields from an older
// record never survive.
func (rp *RedisPersistence) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	fields := snap.Fields()
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}

	_, err := rp.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, rp.key)
		pipe.HSet(ctx, rp.key, values)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot to Redis: %w", err)
	}
	return nil
}

// LoadSnapshot reads the stored hash back.
func (rp *RedisPersistence) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	result, err := rp.client.HGetAll(ctx, rp.key).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load snapshot from Redis: %w", err)
	}
	if len(result) == 0 {
		return Snapshot{}, ErrSnapshotNotFound
	}
	return ParseSnapshot(result)
}

// Clear removes the stored snapshot.
func (rp *RedisPersistence) Clear(ctx context.Context) error {
	if err := rp.client.Del(ctx, rp.key).Err(); err != nil {
		return fmt.Errorf("failed to clear snapshot in Redis: %w", err)
	}
	return nil
}
