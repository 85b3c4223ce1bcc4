// Package notify implements the notification scheduler side of the timer:
// it is told when a run completes and for which subject.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"focusService/internal/clock"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis channel run completions are published on.
const DefaultChannel = "focus:run-completed"

// Completion is the published message.
type Completion struct {
	Subject     string    `json:"subject,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

// LogNotifier writes completions to the log.
type LogNotifier struct{}

func (LogNotifier) RunCompleted(_ context.Context, subject string) error {
	if subject == "" {
		log.Printf("🔔 Focus run completed")
		return nil
	}
	log.Printf("🔔 Focus run completed for %s", subject)
	return nil
}

// RedisPublisher publishes completions so other processes can schedule the
// user-facing notification.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	now     func() time.Time
}

// NewRedisPublisher publishes on channel, or DefaultChannel when empty.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel, now: time.Now}
}

// Channel returns the channel messages are published on.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

func (p *RedisPublisher) RunCompleted(ctx context.Context, subject string) error {
	payload, err := json.Marshal(Completion{Subject: subject, CompletedAt: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode completion: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish completion: %w", err)
	}
	return nil
}

// Multi fans a completion out to several notifiers. Every notifier is called
// even if an earlier one fails.
type Multi []clock.CompletionNotifier

func (m Multi) RunCompleted(ctx context.Context, subject string) error {
	var errs []error
	for _, n := range m {
		if err := n.RunCompleted(ctx, subject); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ clock.CompletionNotifier = LogNotifier{}
	_ clock.CompletionNotifier = (*RedisPublisher)(nil)
	_ clock.CompletionNotifier = Multi(nil)
)
