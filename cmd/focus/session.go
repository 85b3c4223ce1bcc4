package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"focusService/internal/clierr"
	"focusService/internal/clock"
	"focusService/internal/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new run",
	Long:  `Starts session 1 of a new run with the current settings. A finished run is replaced; a live one must be stopped first.`,
	Args:  cobra.NoArgs,
	RunE:  runStart,
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the current phase",
	Args:  cobra.NoArgs,
	RunE:  commandRunner((*clock.Registry).Pause),
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused phase",
	Args:  cobra.NoArgs,
	RunE:  commandRunner((*clock.Registry).Resume),
}

var skipCmd = &cobra.Command{
	Use:   "skip",
	Short: "Finish the current phase now",
	Args:  cobra.NoArgs,
	RunE:  commandRunner((*clock.Registry).Skip),
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the run and record its focus time",
	Args:  cobra.NoArgs,
	RunE:  commandRunner((*clock.Registry).Stop),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the timer",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the timer live until interrupted",
	Long:  `Keeps the timer ticking in the foreground and redraws the status line every second. Ctrl-C saves the timer and exits.`,
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	startCmd.Flags().String("task", "", "task ID to record focus time against")
	statusCmd.Flags().BoolP("verbose", "v", false, "show run details")
	rootCmd.AddCommand(startCmd, pauseCmd, resumeCmd, skipCmd, stopCmd, statusCmd, watchCmd)
}

func runStart(cmd *cobra.Command, _ []string) error {
	taskID, _ := cmd.Flags().GetString("task")
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		if taskID != "" {
			if _, err := a.tasks.GetTask(ctx, taskID); err != nil {
				if errors.Is(err, store.ErrTaskNotFound) {
					return clierr.Newf(clierr.TaskNotFound, "task %s not found", taskID)
				}
				return err
			}
		}
		state, err := a.registry.Start(ctx, a.settings.Current(), taskID)
		if err != nil {
			return clierr.From(err)
		}
		return printState(cmd, state)
	})
}

func commandRunner(fn func(*clock.Registry, context.Context) (clock.State, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			state, err := fn(a.registry, ctx)
			if err != nil {
				return clierr.From(err)
			}
			return printState(cmd, state)
		})
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		state := a.registry.State()
		if flagJSON || !verbose {
			return printState(cmd, state)
		}
		var taskName string
		if state.Subject != "" {
			if task, err := a.tasks.GetTask(ctx, state.Subject); err == nil {
				taskName = task.Name
			}
		}
		statusDetail(cmd.OutOrStdout(), state, taskName)
		return nil
	})
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withApp(ctx, func(a *app) error {
		return watch(ctx, a.registry, cmd.OutOrStdout(), time.Second)
	})
}

// lockedWriter serializes writes from the tick observer and the redraw loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// watch ticks the registry and redraws the status line until ctx ends.
func watch(ctx context.Context, registry *clock.Registry, w io.Writer, interval time.Duration) error {
	out := &lockedWriter{w: w}
	draw := func(s clock.State) {
		if flagJSON {
			_ = printJSON(out, newStateJSON(s))
			return
		}
		fmt.Fprintf(out, "\r\033[K%s", statusLine(s))
	}
	id := registry.Attach(clock.ObserverFunc(draw))
	defer registry.Detach(id)

	// Ticks in non-counting phases are silent, so redraw paused and
	// finished runs from here.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if s := registry.State(); !s.Phase.IsCounting() && !flagJSON {
					draw(s)
				}
			}
		}
	}()

	err := registry.Run(ctx, interval)
	wg.Wait()
	fmt.Fprintln(out)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func printState(cmd *cobra.Command, state clock.State) error {
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), newStateJSON(state))
	}
	fmt.Fprintln(cmd.OutOrStdout(), statusLine(state))
	return nil
}
