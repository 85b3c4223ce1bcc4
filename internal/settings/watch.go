package settings

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"focusService/internal/clock"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of events an editor save produces.
const debounceDelay = 100 * time.Millisecond

// Watch reloads the settings whenever the file changes and calls onChange
// with the new value. Runs already in progress keep the settings they were
// started with. It blocks until ctx is cancelled.
func (p *Provider) Watch(ctx context.Context, onChange func(clock.Settings)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	// Watch the directory so replacing the file by rename is seen. It may not
	// exist yet on a fresh install.
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		return err
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		if err := p.Reload(); err != nil {
			log.Printf("⚠️ Ignoring settings change: %v", err)
			return
		}
		log.Printf("⚙️ Settings reloaded from %s", p.path)
		if onChange != nil {
			onChange(p.Current())
		}
	}

	name := filepath.Clean(p.path)
	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDelay, reload)
			mu.Unlock()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("⚠️ Settings watcher error: %v", err)
		}
	}
}
