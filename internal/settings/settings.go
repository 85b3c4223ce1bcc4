// Package settings is the settings provider: it reads session settings from
// a YAML file and hands the timer an immutable copy at run start.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"focusService/internal/clock"
	"focusService/internal/filelock"

	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	WorkMinutes            int `yaml:"work_minutes"`
	BreakMinutes           int `yaml:"break_minutes"`
	LongBreakMinutes       int `yaml:"long_break_minutes"`
	SessionsUntilLongBreak int `yaml:"sessions_until_long_break"`
	TotalSessions          int `yaml:"total_sessions"`
}

// Provider serves the current settings and keeps them in sync with the file.
type Provider struct {
	path string

	mu      sync.RWMutex
	current clock.Settings
}

// DefaultPath returns settings.yaml under the user config dir for appName.
func DefaultPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

// NewProvider loads the settings at path. A missing file yields defaults.
func NewProvider(path string) (*Provider, error) {
	p := &Provider{path: path, current: clock.DefaultSettings()}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Path returns the settings file location.
func (p *Provider) Path() string {
	return p.path
}

// Current returns the settings a run started now would use.
func (p *Provider) Current() clock.Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Reload re-reads the file. Invalid contents leave the current settings in
// place.
func (p *Provider) Reload() error {
	s, err := Load(p.path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.current = s
	p.mu.Unlock()
	return nil
}

// Save validates s, writes it and makes it current.
func (p *Provider) Save(s clock.Settings) error {
	if err := Save(p.path, s); err != nil {
		return err
	}
	p.mu.Lock()
	p.current = s
	p.mu.Unlock()
	return nil
}

// Load reads settings from path. Fields missing from the file keep their
// default values.
func Load(path string) (clock.Settings, error) {
	settings := clock.DefaultSettings()

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	if err := settings.Validate(); err != nil {
		return clock.DefaultSettings(), err
	}
	return settings, nil
}

// Save writes settings to path under an advisory lock.
func Save(path string, settings clock.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	fileData := yamlSettings{
		WorkMinutes:            int(settings.WorkDuration / time.Minute),
		BreakMinutes:           int(settings.BreakDuration / time.Minute),
		LongBreakMinutes:       int(settings.LongBreakDuration / time.Minute),
		SessionsUntilLongBreak: settings.SessionsUntilLongBreak,
		TotalSessions:          settings.TotalSessions,
	}
	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	unlock, err := filelock.Lock(filelock.For(path))
	if err != nil {
		return fmt.Errorf("lock settings file: %w", err)
	}
	defer func() { _ = unlock() }()

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

func applyYamlSettings(settings *clock.Settings, fileData yamlSettings) {
	if fileData.WorkMinutes > 0 {
		settings.WorkDuration = time.Duration(fileData.WorkMinutes) * time.Minute
	}
	if fileData.BreakMinutes > 0 {
		settings.BreakDuration = time.Duration(fileData.BreakMinutes) * time.Minute
	}
	if fileData.LongBreakMinutes > 0 {
		settings.LongBreakDuration = time.Duration(fileData.LongBreakMinutes) * time.Minute
	}
	if fileData.SessionsUntilLongBreak > 0 {
		settings.SessionsUntilLongBreak = fileData.SessionsUntilLongBreak
	}
	if fileData.TotalSessions > 0 {
		settings.TotalSessions = fileData.TotalSessions
	}
}
