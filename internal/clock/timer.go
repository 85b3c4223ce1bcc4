package clock

import (
	"context"
	"log"
	"time"
)

// Run drives Tick from a ticker until ctx is cancelled. A non-positive
// interval means one second.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("⏱️ Ticker running every %v", interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Tick(ctx, r.clock.Now())
		}
	}
}
