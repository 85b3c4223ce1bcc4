package clock

import (
	"context"
	"time"
)

// EventType identifies a one-shot engine event.
type EventType string

const (
	EventPhaseStarted   EventType = "phase_started"
	EventPhaseCompleted EventType = "phase_completed"
	EventRunCompleted   EventType = "run_completed"
	EventRunStopped     EventType = "run_stopped"
)

// Event is emitted at well-defined transitions: rollover into and out of a
// counting phase, run completion, and stop.
type Event struct {
	Type    EventType
	RunID   string
	Phase   Phase
	Session int
	Subject string
	// Duration is the phase length for PhaseStarted, the time spent for
	// PhaseCompleted and the focus total for RunCompleted/RunStopped.
	Duration  time.Duration
	LongBreak bool
	Skipped   bool
	At        time.Time
}

// Observer receives a state snapshot after every successful command or tick.
type Observer interface {
	OnState(State)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(State)

func (f ObserverFunc) OnState(s State) { f(s) }

// FocusReport is what the task store receives once per run, on stop or on
// completion.
type FocusReport struct {
	RunID     string
	Subject   string
	Focus     time.Duration
	Completed bool
	At        time.Time
}

// FocusSeconds returns the reported focus time in whole seconds.
func (r FocusReport) FocusSeconds() int64 {
	return int64(r.Focus / time.Second)
}

// FocusRecorder is the task store side of the engine boundary.
type FocusRecorder interface {
	RecordFocus(ctx context.Context, report FocusReport) error
}

// CompletionNotifier is the notification scheduler side of the engine
// boundary. It learns only which subject finished.
type CompletionNotifier interface {
	RunCompleted(ctx context.Context, subject string) error
}

func focusReportFrom(e Event) FocusReport {
	return FocusReport{
		RunID:     e.RunID,
		Subject:   e.Subject,
		Focus:     e.Duration,
		Completed: e.Type == EventRunCompleted,
		At:        e.At,
	}
}
