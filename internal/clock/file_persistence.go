package clock

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"focusService/internal/filelock"

	"gopkg.in/yaml.v3"
)

// FileStore keeps the run snapshot in a YAML file. Writes go through a temp
// file and a rename under an advisory lock so a concurrent reader never sees
// a partial record.
//
// Several processes may share the file. Once a FileStore has loaded or saved
// the record, a save fails with ErrSnapshotConflict if the file no longer
// holds what this store last saw.
type FileStore struct {
	path string

	mu     sync.Mutex
	synced bool
	seen   []byte
}

// NewFileStore returns a store writing to path. The parent directory is
// created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file location.
func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) SaveSnapshot(_ context.Context, snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	data, err := yaml.Marshal(snap.Fields())
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	unlock, err := filelock.Lock(filelock.For(fs.path))
	if err != nil {
		return fmt.Errorf("failed to lock snapshot file: %w", err)
	}
	defer func() { _ = unlock() }()

	if fs.synced {
		current, err := os.ReadFile(fs.path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return fmt.Errorf("failed to read snapshot: %w", err)
		case !bytes.Equal(current, fs.seen):
			return ErrSnapshotConflict
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.path), ".snapshot-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	fs.synced, fs.seen = true, data
	return nil
}

func (fs *FileStore) LoadSnapshot(_ context.Context) (Snapshot, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	unlock, err := filelock.Lock(filelock.For(fs.path))
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to lock snapshot file: %w", err)
	}
	defer func() { _ = unlock() }()

	data, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		fs.synced, fs.seen = true, nil
		return Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	// Even an unreadable record counts as seen so recovery can replace it.
	fs.synced, fs.seen = true, data

	var fields map[string]string
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if len(fields) == 0 {
		return Snapshot{}, fmt.Errorf("%w: empty snapshot file", ErrCorruptSnapshot)
	}
	return ParseSnapshot(fields)
}

func (fs *FileStore) Close() error {
	return nil
}
