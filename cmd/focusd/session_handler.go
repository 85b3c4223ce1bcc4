package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"focusService/internal/clock"
	"focusService/internal/settings"
	"focusService/internal/store"
)

// streamBuffer is how many states a slow stream client may lag before
// intermediate states are dropped in favour of newer ones.
const streamBuffer = 16

func NewSessionHandler(registry *clock.Registry, provider *settings.Provider, tasks *store.Store) *SessionHandler {
	return &SessionHandler{registry: registry, settings: provider, tasks: tasks}
}

type SessionHandler struct {
	registry *clock.Registry
	settings *settings.Provider
	tasks    *store.Store
}

// SettingsBody is the wire form of session settings, in minutes like the
// settings file.
type SettingsBody struct {
	WorkMinutes            int `json:"workMinutes"`
	BreakMinutes           int `json:"breakMinutes"`
	LongBreakMinutes       int `json:"longBreakMinutes"`
	SessionsUntilLongBreak int `json:"sessionsUntilLongBreak"`
	TotalSessions          int `json:"totalSessions"`
}

func settingsBody(s clock.Settings) SettingsBody {
	return SettingsBody{
		WorkMinutes:            int(s.WorkDuration / time.Minute),
		BreakMinutes:           int(s.BreakDuration / time.Minute),
		LongBreakMinutes:       int(s.LongBreakDuration / time.Minute),
		SessionsUntilLongBreak: s.SessionsUntilLongBreak,
		TotalSessions:          s.TotalSessions,
	}
}

func (b SettingsBody) settings() clock.Settings {
	return clock.Settings{
		WorkDuration:           time.Duration(b.WorkMinutes) * time.Minute,
		BreakDuration:          time.Duration(b.BreakMinutes) * time.Minute,
		LongBreakDuration:      time.Duration(b.LongBreakMinutes) * time.Minute,
		SessionsUntilLongBreak: b.SessionsUntilLongBreak,
		TotalSessions:          b.TotalSessions,
	}
}

// SessionStateResponse represents the session state response format
type SessionStateResponse struct {
	RunID                string        `json:"runId,omitempty"`
	Phase                string        `json:"phase"`
	PausedFrom           string        `json:"pausedFrom,omitempty"`
	Session              int           `json:"session"`
	TotalSessions        int           `json:"totalSessions"`
	RemainingSeconds     int64         `json:"remainingSeconds"`
	Remaining            string        `json:"remaining"`
	PhaseDurationSeconds int64         `json:"phaseDurationSeconds"`
	Progress             float64       `json:"progress"`
	LongBreak            bool          `json:"longBreak"`
	Subject              string        `json:"subject,omitempty"`
	FocusSeconds         int64         `json:"focusSeconds"`
	Label                string        `json:"label"`
	HasActiveRun         bool          `json:"hasActiveRun"`
	Settings             *SettingsBody `json:"settings,omitempty"`
	EndTime              string        `json:"endTime,omitempty"`
	ServerTime           string        `json:"serverTime"`
}

func newSessionStateResponse(s clock.State) SessionStateResponse {
	response := SessionStateResponse{
		RunID:                s.RunID,
		Phase:                s.Phase.String(),
		PausedFrom:           s.PausedFrom.String(),
		Session:              s.Session,
		TotalSessions:        s.TotalSessions,
		RemainingSeconds:     int64(s.Remaining.Round(time.Second) / time.Second),
		Remaining:            clock.FormatDuration(s.Remaining),
		PhaseDurationSeconds: int64(s.PhaseDuration / time.Second),
		Progress:             s.Progress,
		LongBreak:            s.IsLongBreak(),
		Subject:              s.Subject,
		FocusSeconds:         int64(s.FocusCompleted / time.Second),
		Label:                clock.Describe(s),
		HasActiveRun:         s.HasActiveRun(),
		ServerTime:           s.At.Format(time.RFC3339),
	}
	if s.HasActiveRun() {
		body := settingsBody(s.Settings)
		response.Settings = &body
	}
	// A paused phase has no end time.
	if s.Phase.IsCounting() {
		response.EndTime = s.At.Add(s.Remaining).Format(time.RFC3339)
	}
	return response
}

type startRequest struct {
	Subject string `json:"subject"`
}

func (h *SessionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newSessionStateResponse(h.registry.State()))
}

// Start begins a run with the settings current at this moment.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON", "Failed to parse request body")
		return
	}

	if req.Subject != "" && h.tasks != nil {
		if _, err := h.tasks.GetTask(r.Context(), req.Subject); err != nil {
			h.writeCommandError(w, err)
			return
		}
	}

	h.command(r.Context(), w, func(ctx context.Context) (clock.State, error) {
		return h.registry.Start(ctx, h.settings.Current(), req.Subject)
	})
}

func (h *SessionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.command(r.Context(), w, h.registry.Pause)
}

func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.command(r.Context(), w, h.registry.Resume)
}

func (h *SessionHandler) Skip(w http.ResponseWriter, r *http.Request) {
	h.command(r.Context(), w, h.registry.Skip)
}

func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.command(r.Context(), w, h.registry.Stop)
}

func (h *SessionHandler) command(ctx context.Context, w http.ResponseWriter, fn func(context.Context) (clock.State, error)) {
	// Collaborator writes must not be cut short by a client disconnect.
	state, err := fn(context.WithoutCancel(ctx))
	if err != nil {
		h.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionStateResponse(state))
}

func (h *SessionHandler) writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, clock.ErrInvalidTransition):
		writeErrorResponse(w, http.StatusConflict, "Invalid transition", err.Error())
	case errors.Is(err, clock.ErrInvalidSettings):
		writeErrorResponse(w, http.StatusBadRequest, "Invalid settings", err.Error())
	case errors.Is(err, store.ErrTaskNotFound):
		writeErrorResponse(w, http.StatusNotFound, "Task not found", err.Error())
	default:
		log.Printf("Session command failed: %v", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Command failed", "Internal server error")
	}
}

// StatsResponse reports the phases finished since the server started.
type StatsResponse struct {
	WorkSessions      int                 `json:"workSessions"`
	ShortBreaks       int                 `json:"shortBreaks"`
	LongBreaks        int                 `json:"longBreaks"`
	Skipped           int                 `json:"skipped"`
	WorkTime          string              `json:"workTime"`
	BreakTime         string              `json:"breakTime"`
	ProductivityScore float64             `json:"productivityScore"`
	Recent            []clock.PhaseRecord `json:"recent"`
}

func (h *SessionHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.registry.Statistics()
	history := h.registry.History()
	if len(history) > 10 {
		history = history[len(history)-10:]
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		WorkSessions:      stats.WorkSessions,
		ShortBreaks:       stats.ShortBreaks,
		LongBreaks:        stats.LongBreaks,
		Skipped:           stats.Skipped,
		WorkTime:          clock.FormatDurationString(stats.WorkTime),
		BreakTime:         clock.FormatDurationString(stats.BreakTime),
		ProductivityScore: stats.ProductivityScore(),
		Recent:            history,
	})
}

func (h *SessionHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, settingsBody(h.settings.Current()))
}

// PutSettings replaces the settings used by the next run. A run in progress
// keeps its own copy.
func (h *SessionHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var body SettingsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON", "Failed to parse request body")
		return
	}
	if err := h.settings.Save(body.settings()); err != nil {
		h.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsBody(h.settings.Current()))
}

// Stream sends the state as Server-Sent Events for as long as the client
// stays connected.
func (h *SessionHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorResponse(w, http.StatusInternalServerError, "Streaming unsupported", "Response writer cannot flush")
		return
	}

	states := make(chan clock.State, streamBuffer)
	id := h.registry.Attach(clock.ObserverFunc(func(s clock.State) {
		select {
		case states <- s:
		default:
			// Drop the oldest queued state to make room for the newest.
			select {
			case <-states:
			default:
			}
			select {
			case states <- s:
			default:
			}
		}
	}))
	defer h.registry.Detach(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case s := <-states:
			data, err := json.Marshal(newSessionStateResponse(s))
			if err != nil {
				log.Printf("Failed to encode state: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
