package clock

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a command is issued from a phase
	// that does not permit it. State is left unchanged.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrCorruptSnapshot marks persisted recovery data that is missing fields
	// or cannot be parsed. Recovery discards it and starts from NotStarted.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")

	// ErrClockAnomaly marks a negative wall-clock delta during recovery.
	ErrClockAnomaly = errors.New("clock anomaly")

	// ErrInvalidSettings is returned by Start for unusable settings.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrSnapshotNotFound is returned by a SnapshotStore holding no record.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrSnapshotConflict is returned by a SnapshotStore when another process
	// replaced the record since this one last loaded or saved it.
	ErrSnapshotConflict = errors.New("snapshot changed by another process")
)

// Command names an engine command for error reporting.
type Command string

const (
	CommandStart  Command = "start"
	CommandPause  Command = "pause"
	CommandResume Command = "resume"
	CommandSkip   Command = "skip"
	CommandStop   Command = "stop"
)

// TransitionError describes a rejected command.
type TransitionError struct {
	Command Command
	Phase   Phase
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s: clock is %s", e.Command, e.Phase)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func rejected(cmd Command, phase Phase) error {
	return &TransitionError{Command: cmd, Phase: phase}
}
