package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"focusService/internal/clock"
)

const barWidth = 20

var (
	workStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	breakStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	longBreakStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	pausedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	doneStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("141"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	labelStyle     = lipgloss.NewStyle().Bold(true)
)

func disableColor() {
	workStyle = lipgloss.NewStyle()
	breakStyle = lipgloss.NewStyle()
	longBreakStyle = lipgloss.NewStyle()
	pausedStyle = lipgloss.NewStyle()
	doneStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	labelStyle = lipgloss.NewStyle()
}

func phaseStyle(s clock.State) lipgloss.Style {
	switch {
	case s.Phase == clock.PhasePaused:
		return pausedStyle
	case s.Phase == clock.PhaseCompleted:
		return doneStyle
	case s.Phase == clock.PhaseOnBreak && s.IsLongBreak():
		return longBreakStyle
	case s.Phase == clock.PhaseOnBreak:
		return breakStyle
	case s.Phase == clock.PhaseWorking:
		return workStyle
	}
	return dimStyle
}

// statusLine renders the one-line summary shown by status and watch.
func statusLine(s clock.State) string {
	line := phaseStyle(s).Render(clock.Describe(s))
	if s.Phase == clock.PhaseNotStarted {
		return line
	}
	return line + " " + dimStyle.Render(progressBar(s.Progress, barWidth))
}

func progressBar(progress float64, width int) string {
	filled := int(progress*float64(width) + 0.5)
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// statusDetail writes the verbose status block.
func statusDetail(w io.Writer, s clock.State, taskName string) {
	fmt.Fprintln(w, statusLine(s))
	if !s.HasActiveRun() {
		return
	}
	row := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%-10s", label)), value)
	}
	row("Run", s.RunID)
	if s.Subject != "" {
		if taskName == "" {
			taskName = s.Subject
		}
		row("Task", taskName)
	}
	row("Focus", clock.FormatDurationString(s.FocusCompleted))
	if s.AccumulatedPaused > 0 {
		row("Paused", clock.FormatDurationString(s.AccumulatedPaused))
	}
	if s.Phase != clock.PhaseCompleted {
		row("Left", clock.FormatTimeRemaining(s.Remaining))
	}
	if s.Phase.IsCounting() {
		row("Ends", s.At.Add(s.Remaining).Format(time.Kitchen))
	}
	set := s.Settings
	row("Cycle", fmt.Sprintf("%s work, %s break, %s long break every %d, %d sessions",
		clock.FormatDurationString(set.WorkDuration),
		clock.FormatDurationString(set.BreakDuration),
		clock.FormatDurationString(set.LongBreakDuration),
		set.SessionsUntilLongBreak, set.TotalSessions))
}

// stateJSON is the --json form of a state.
type stateJSON struct {
	RunID            string  `json:"runId,omitempty"`
	Phase            string  `json:"phase"`
	PausedFrom       string  `json:"pausedFrom,omitempty"`
	Session          int     `json:"session"`
	TotalSessions    int     `json:"totalSessions"`
	RemainingSeconds int64   `json:"remainingSeconds"`
	Progress         float64 `json:"progress"`
	Subject          string  `json:"subject,omitempty"`
	FocusSeconds     int64   `json:"focusSeconds"`
	Label            string  `json:"label"`
}

func newStateJSON(s clock.State) stateJSON {
	return stateJSON{
		RunID:            s.RunID,
		Phase:            s.Phase.String(),
		PausedFrom:       s.PausedFrom.String(),
		Session:          s.Session,
		TotalSessions:    s.TotalSessions,
		RemainingSeconds: int64(s.Remaining.Round(time.Second) / time.Second),
		Progress:         s.Progress,
		Subject:          s.Subject,
		FocusSeconds:     int64(s.FocusCompleted / time.Second),
		Label:            clock.Describe(s),
	}
}
