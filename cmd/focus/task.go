package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"focusService/internal/clierr"
	"focusService/internal/clock"
	"focusService/internal/store"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks that focus time is recorded against",
}

var taskAddCmd = &cobra.Command{
	Use:     "add NAME",
	Aliases: []string{"create"},
	Short:   "Create a task",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks with their focus time",
	Args:    cobra.NoArgs,
	RunE:    runTaskList,
}

func init() {
	taskCmd.AddCommand(taskAddCmd, taskListCmd)
	rootCmd.AddCommand(taskCmd)
}

// openTasks opens the task store alone; task commands leave the timer alone.
func openTasks() (*store.Store, error) {
	dir, err := resolveDir()
	if err != nil {
		return nil, err
	}
	tasks, err := store.New(filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("opening task store: %w", err)
	}
	return tasks, nil
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return clierr.New(clierr.InvalidInput, "task name is required")
	}

	tasks, err := openTasks()
	if err != nil {
		return err
	}
	defer tasks.Close()

	task, err := tasks.CreateTask(cmd.Context(), name)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), task)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created task %s %s\n", task.ID, labelStyle.Render(task.Name))
	return nil
}

func runTaskList(cmd *cobra.Command, _ []string) error {
	tasks, err := openTasks()
	if err != nil {
		return err
	}
	defer tasks.Close()

	list, err := tasks.ListTasks(cmd.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []store.Task{}
	}
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), list)
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, dimStyle.Render("No tasks yet. Add one with: focus task add NAME"))
		return nil
	}
	for _, t := range list {
		focus := clock.FormatDurationString(time.Duration(t.FocusSeconds) * time.Second)
		fmt.Fprintf(out, "%s  %-30s %s\n", dimStyle.Render(t.ID), t.Name, labelStyle.Render(focus))
	}
	return nil
}
