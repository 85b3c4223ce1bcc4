package clock

import (
	"context"
	"sync"
	"time"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward and returns the new time.
func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func shortSettings(total int) Settings {
	return Settings{
		WorkDuration:           60 * time.Second,
		BreakDuration:          30 * time.Second,
		LongBreakDuration:      90 * time.Second,
		SessionsUntilLongBreak: 4,
		TotalSessions:          total,
	}
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

// stateRecorder is an Observer collecting every state it is sent.
type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) OnState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) Phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	phases := make([]Phase, 0, len(r.states))
	for _, s := range r.states {
		phases = append(phases, s.Phase)
	}
	return phases
}

type recorderStub struct {
	mu      sync.Mutex
	reports []FocusReport
}

func (r *recorderStub) RecordFocus(_ context.Context, report FocusReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	return nil
}

type notifierStub struct {
	mu       sync.Mutex
	subjects []string
}

func (n *notifierStub) RunCompleted(_ context.Context, subject string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subjects = append(n.subjects, subject)
	return nil
}

// countingStore wraps MemoryStore and counts saves.
type countingStore struct {
	*MemoryStore
	mu    sync.Mutex
	saves int
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: NewMemoryStore()}
}

func (s *countingStore) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.MemoryStore.SaveSnapshot(ctx, snap)
}

func (s *countingStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
