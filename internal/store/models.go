package store

import "time"

type Task struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	FocusSeconds int64     `json:"focusSeconds"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FocusRecord is one run's reported focus time.
type FocusRecord struct {
	ID           string    `json:"id"`
	RunID        string    `json:"runId"`
	TaskID       string    `json:"taskId,omitempty"`
	FocusSeconds int64     `json:"focusSeconds"`
	Completed    bool      `json:"completed"`
	RecordedAt   time.Time `json:"recordedAt"`
}
