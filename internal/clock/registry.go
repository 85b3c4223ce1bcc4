package clock

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// DefaultCheckpointInterval is how many ticks pass between periodic snapshot
// writes while a phase is counting.
const DefaultCheckpointInterval = 10

// ObserverID identifies an attached observer for Detach.
type ObserverID int

type observerEntry struct {
	id       ObserverID
	observer Observer
}

// Registry owns the single live Machine of the process and serializes every
// command, tick and recovery through one mutex. After each successful
// mutation it persists the snapshot, hands events to the collaborators and
// broadcasts the new State to observers in attach order.
//
// If the store reports that another process replaced the snapshot, the
// registry adopts that record, and a command is applied again on top of it.
//
// Observers are called with the registry lock held and must not call back
// into the Registry.
type Registry struct {
	mu sync.Mutex

	clock    Clock
	machine  *Machine
	store    SnapshotStore
	recorder FocusRecorder
	notifier CompletionNotifier
	stats    *StatisticsManager

	observers []observerEntry
	nextID    ObserverID

	checkpointEvery int
	tickCounter     int
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithSnapshotStore sets where snapshots are written.
func WithSnapshotStore(s SnapshotStore) Option {
	return func(r *Registry) { r.store = s }
}

// WithFocusRecorder sets the task store receiving focus reports.
func WithFocusRecorder(fr FocusRecorder) Option {
	return func(r *Registry) { r.recorder = fr }
}

// WithNotifier sets the notification scheduler.
func WithNotifier(n CompletionNotifier) Option {
	return func(r *Registry) { r.notifier = n }
}

// WithCheckpointInterval sets the number of ticks between periodic snapshot
// writes. Zero disables periodic checkpoints.
func WithCheckpointInterval(ticks int) Option {
	return func(r *Registry) { r.checkpointEvery = ticks }
}

// NewRegistry creates a Registry holding a NotStarted machine. Without a
// snapshot store the registry keeps its snapshot in memory.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		clock:           SystemClock,
		stats:           NewStatisticsManager(),
		checkpointEvery: DefaultCheckpointInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.clock == nil {
		r.clock = SystemClock
	}
	if r.store == nil {
		r.store = NewMemoryStore()
	}
	r.machine = NewMachine(r.clock)
	return r
}

// Start begins a new run with a settings snapshot and an optional subject.
func (r *Registry) Start(ctx context.Context, settings Settings, subject string) (State, error) {
	return r.apply(ctx, CommandStart, func() ([]Event, error) {
		return r.machine.Start(settings, subject)
	})
}

// Pause freezes the countdown.
func (r *Registry) Pause(ctx context.Context) (State, error) {
	return r.apply(ctx, CommandPause, r.machine.Pause)
}

// Resume continues a paused run.
func (r *Registry) Resume(ctx context.Context) (State, error) {
	return r.apply(ctx, CommandResume, r.machine.Resume)
}

// Skip finishes the current phase early.
func (r *Registry) Skip(ctx context.Context) (State, error) {
	return r.apply(ctx, CommandSkip, r.machine.Skip)
}

// Stop ends the run, reporting its focus time.
func (r *Registry) Stop(ctx context.Context) (State, error) {
	return r.apply(ctx, CommandStop, r.machine.Stop)
}

func (r *Registry) apply(ctx context.Context, cmd Command, fn func() ([]Event, error)) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := fn()
	now := r.clock.Now()
	if err != nil && len(events) == 0 {
		log.Printf("⚠️ %s rejected: %v", cmd, err)
		return r.machine.State(now), err
	}

	if r.persist(ctx, now) {
		// The command ran against a stale run; apply it again to the
		// record another process saved.
		events, err = fn()
		now = r.clock.Now()
		if err != nil && len(events) == 0 {
			log.Printf("⚠️ %s rejected after reload: %v", cmd, err)
			state := r.machine.State(now)
			r.broadcast(state)
			return state, err
		}
		r.persist(ctx, now)
	}
	r.dispatch(ctx, events)
	r.tickCounter = 0

	state := r.machine.State(now)
	if err != nil {
		// The catch-up tick changed the run even though the command itself
		// was rejected.
		log.Printf("⚠️ %s rejected after catching up: %v", cmd, err)
	} else {
		log.Printf("🔄 %s: %s session %d/%d, %v remaining", cmd, state.Phase, state.Session, state.TotalSessions, state.Remaining.Round(time.Second))
	}
	r.broadcast(state)
	return state, err
}

// Tick advances the countdown to now. It is safe to call at any rate; missed
// ticks are caught up analytically.
func (r *Registry) Tick(ctx context.Context, now time.Time) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	counting := r.machine.Phase().IsCounting()
	events := r.machine.Tick(now)
	state := r.machine.State(now)
	if !counting {
		return state
	}

	r.tickCounter++
	switch {
	case len(events) > 0:
		// Rollovers computed from a record another process has since
		// replaced are dropped with it.
		if !r.persist(ctx, now) {
			r.dispatch(ctx, events)
		}
		r.tickCounter = 0
		state = r.machine.State(now)
	case r.checkpointEvery > 0 && r.tickCounter >= r.checkpointEvery:
		r.persist(ctx, now)
		r.tickCounter = 0
		state = r.machine.State(now)
	}

	r.broadcast(state)
	return state
}

// Recover loads the stored snapshot and reconciles the time that passed while
// the process was suspended. It never fails: unreadable snapshots leave the
// registry NotStarted and are described in the report. The recovered state
// is persisted immediately.
func (r *Registry) Recover(ctx context.Context) RecoveryReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	report := r.reload(ctx, now)
	r.broadcast(r.machine.State(now))
	return report
}

// reload replaces the machine with the stored snapshot and persists the
// result.
func (r *Registry) reload(ctx context.Context, now time.Time) RecoveryReport {
	var report RecoveryReport
	snap, err := r.store.LoadSnapshot(ctx)
	switch {
	case errors.Is(err, ErrSnapshotNotFound):
		log.Printf("ℹ️ No snapshot found, starting fresh")
		report = r.machine.Recover(Snapshot{Phase: PhaseNotStarted}, now)
	case err != nil:
		log.Printf("⚠️ Failed to load snapshot: %v", err)
		report = r.machine.Recover(Snapshot{Phase: PhaseNotStarted}, now)
		report.Err = err
	default:
		report = r.machine.Recover(snap, now)
	}

	r.dispatch(ctx, report.Events)
	if err := r.store.SaveSnapshot(ctx, r.machine.Snapshot(now)); err != nil {
		log.Printf("❌ Failed to save recovered snapshot: %v", err)
	}
	r.tickCounter = 0
	return report
}

// Suspend writes the snapshot for a later Recover. Unlike the best-effort
// writes after each command, its error is returned.
func (r *Registry) Suspend(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	snap := r.machine.Snapshot(now)
	err := r.store.SaveSnapshot(ctx, snap)
	if errors.Is(err, ErrSnapshotConflict) {
		// Another process changed the run; its record is newer than ours.
		log.Printf("🔄 Snapshot changed by another process, adopting it before suspending")
		r.reload(ctx, now)
		r.broadcast(r.machine.State(now))
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("💾 Suspended %s session %d with %v remaining", snap.Phase, snap.Session, snap.Remaining)
	return nil
}

// State returns the current run state.
func (r *Registry) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.State(r.clock.Now())
}

// HasActiveRun reports whether any run other than NotStarted exists.
func (r *Registry) HasActiveRun() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.Phase() != PhaseNotStarted
}

// Statistics returns the phase counters accumulated by this process.
func (r *Registry) Statistics() Statistics {
	return r.stats.Snapshot()
}

// History returns the finished phases recorded by this process.
func (r *Registry) History() []PhaseRecord {
	return r.stats.History()
}

// Attach registers an observer. It is sent the current state at once and then
// every subsequent state.
func (r *Registry) Attach(o Observer) ObserverID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.observers = append(r.observers, observerEntry{id: id, observer: o})
	o.OnState(r.machine.State(r.clock.Now()))
	return id
}

// Detach removes an observer. Unknown ids are ignored.
func (r *Registry) Detach(id ObserverID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, entry := range r.observers {
		if entry.id == id {
			r.observers = append(r.observers[:i:i], r.observers[i+1:]...)
			return
		}
	}
}

// Close releases the snapshot store.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Close()
}

func (r *Registry) broadcast(state State) {
	for _, entry := range r.observers {
		entry.observer.OnState(state)
	}
}

// persist writes the snapshot. Failures are logged and do not fail the
// command. When another process has replaced the record, the machine adopts
// that record instead of overwriting it.
func (r *Registry) persist(ctx context.Context, now time.Time) (reloaded bool) {
	err := r.store.SaveSnapshot(ctx, r.machine.Snapshot(now))
	if errors.Is(err, ErrSnapshotConflict) {
		log.Printf("🔄 Snapshot changed by another process, reloading")
		r.reload(ctx, now)
		return true
	}
	if err != nil {
		log.Printf("❌ Failed to save snapshot: %v", err)
	}
	return false
}

func (r *Registry) dispatch(ctx context.Context, events []Event) {
	for _, e := range events {
		switch e.Type {
		case EventPhaseStarted:
			log.Printf("▶️ Started %s session %d (duration: %v)", e.Phase, e.Session, e.Duration)
		case EventPhaseCompleted:
			r.stats.Record(e)
			log.Printf("✅ Completed %s session %d after %v (skipped: %v)", e.Phase, e.Session, e.Duration, e.Skipped)
		case EventRunCompleted:
			log.Printf("🏁 Run %s completed with %v focus", e.RunID, e.Duration)
			r.recordFocus(ctx, e)
			if r.notifier != nil {
				if err := r.notifier.RunCompleted(ctx, e.Subject); err != nil {
					log.Printf("❌ Failed to notify completion: %v", err)
				}
			}
		case EventRunStopped:
			log.Printf("⏹️ Run %s stopped with %v focus", e.RunID, e.Duration)
			r.recordFocus(ctx, e)
		}
	}
}

func (r *Registry) recordFocus(ctx context.Context, e Event) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordFocus(ctx, focusReportFrom(e)); err != nil {
		log.Printf("❌ Failed to record focus for run %s: %v", e.RunID, err)
	}
}
