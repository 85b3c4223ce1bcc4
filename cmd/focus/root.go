package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"focusService/internal/clierr"
	"focusService/internal/clock"
	"focusService/internal/notify"
	"focusService/internal/settings"
	"focusService/internal/store"
)

const (
	appName      = "focus"
	dbFileName   = "focus.db"
	snapshotFile = "snapshot.yaml"
	settingsFile = "settings.yaml"
)

// Global flags.
var (
	flagDir     string
	flagJSON    bool
	flagNoColor bool
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:   "focus",
	Short: "Work/break focus timer",
	Long: `focus runs a work/break interval timer from the terminal.
Every command restores the timer from disk, applies itself and saves it again,
so time keeps counting between invocations.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagNoColor || os.Getenv("NO_COLOR") != "" {
			disableColor()
		}
		if !flagDebug {
			log.SetOutput(io.Discard)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "data directory (default: user config dir)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "log engine activity to stderr")
}

// Execute runs the root command.
func Execute() {
	_, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}

	cliErr := clierr.From(err)
	if flagJSON {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{
			"code":    cliErr.Code,
			"message": cliErr.Message,
		})
	} else {
		fmt.Fprintln(os.Stderr, cliErr.Message)
	}
	os.Exit(cliErr.ExitCode())
}

// resolveDir returns the data directory, creating it if needed.
func resolveDir() (string, error) {
	dir := flagDir
	if dir == "" {
		path, err := settings.DefaultPath(appName)
		if err != nil {
			return "", err
		}
		dir = filepath.Dir(path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	return dir, nil
}

// app is one CLI process's view of the timer.
type app struct {
	registry *clock.Registry
	settings *settings.Provider
	tasks    *store.Store
	report   clock.RecoveryReport
}

// openApp restores the timer from the data directory.
func openApp(ctx context.Context) (*app, error) {
	dir, err := resolveDir()
	if err != nil {
		return nil, err
	}

	provider, err := settings.NewProvider(filepath.Join(dir, settingsFile))
	if err != nil {
		return nil, &clierr.Error{Code: clierr.InvalidSettings, Message: fmt.Sprintf("loading settings: %v", err), Err: err}
	}

	tasks, err := store.New(filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("opening task store: %w", err)
	}

	registry := clock.NewRegistry(
		clock.WithSnapshotStore(clock.NewFileStore(filepath.Join(dir, snapshotFile))),
		clock.WithFocusRecorder(tasks),
		clock.WithNotifier(notify.LogNotifier{}),
	)
	a := &app{registry: registry, settings: provider, tasks: tasks}
	a.report = registry.Recover(ctx)
	if a.report.Err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", a.report)
	}
	return a, nil
}

// close suspends the timer and releases the stores.
func (a *app) close(ctx context.Context) error {
	err := a.registry.Suspend(ctx)
	if cerr := a.registry.Close(); err == nil {
		err = cerr
	}
	if cerr := a.tasks.Close(); err == nil {
		err = cerr
	}
	return err
}

// withApp runs fn against a restored timer and suspends it afterwards.
func withApp(ctx context.Context, fn func(*app) error) (err error) {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(ctx); cerr != nil && err == nil {
			err = fmt.Errorf("saving timer: %w", cerr)
		}
	}()
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
