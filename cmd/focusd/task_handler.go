package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"focusService/internal/store"

	"github.com/go-chi/chi/v5"
)

type TaskHandler struct {
	tasks *store.Store
}

func NewTaskHandler(tasks *store.Store) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type createTaskRequest struct {
	Name string `json:"name"`
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON", "Failed to parse request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Validation error", "Name is required")
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), req.Name)
	if err != nil {
		log.Printf("Failed to create task: %v", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to create task", "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListTasks(r.Context())
	if err != nil {
		log.Printf("Failed to list tasks: %v", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to list tasks", "Internal server error")
		return
	}
	if tasks == nil {
		tasks = []store.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.GetTask(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrTaskNotFound) {
		writeErrorResponse(w, http.StatusNotFound, "Task not found", err.Error())
		return
	}
	if err != nil {
		log.Printf("Failed to get task: %v", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to get task", "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// ListFocus returns the focus records reported against a task.
func (h *TaskHandler) ListFocus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.tasks.GetTask(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "Task not found", err.Error())
			return
		}
		log.Printf("Failed to get task: %v", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to get task", "Internal server error")
		return
	}

	records, err := h.tasks.ListFocusRecords(r.Context(), id)
	if err != nil {
		log.Printf("Failed to list focus records: %v", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to list focus records", "Internal server error")
		return
	}
	if records == nil {
		records = []store.FocusRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
