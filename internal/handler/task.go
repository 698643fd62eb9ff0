package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/CarlosNatanauan/listly/internal/apperr"
	"github.com/CarlosNatanauan/listly/internal/auth"
	"github.com/CarlosNatanauan/listly/internal/middleware"
	"github.com/CarlosNatanauan/listly/internal/store"
	"github.com/CarlosNatanauan/listly/internal/websocket"
)

type TaskHandler struct {
	taskStore *store.TaskStore
	events    *websocket.Broadcaster
	logger    *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, events *websocket.Broadcaster, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{taskStore: ts, events: events, logger: logger}
}

func (h *TaskHandler) publish(r *http.Request, ev websocket.Event) {
	if h.events != nil {
		h.events.Publish(r.Context(), ev.FromConn(r.Header.Get(middleware.ConnectionIDHeader)))
	}
}

type taskRequest struct {
	Task      *string `json:"task"`
	Completed *bool   `json:"completed"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Task == nil || strings.TrimSpace(*req.Task) == "" {
		writeBadRequest(w, "task is required")
		return
	}
	completed := req.Completed != nil && *req.Completed

	task, err := h.taskStore.Create(r.Context(), auth.AccountID(r.Context()), strings.TrimSpace(*req.Task), completed)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.publish(r, websocket.TaskCreated(task))

	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskStore.List(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskStore.Get(r.Context(), auth.AccountID(r.Context()), idParam(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if task == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Update changes only the fields present in the body; toggling completion
// sends just {"completed": true}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	owner := auth.AccountID(ctx)
	id := idParam(r)

	existing, err := h.taskStore.Get(ctx, owner, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	text, completed := existing.Task, existing.Completed
	if req.Task != nil {
		text = strings.TrimSpace(*req.Task)
		if text == "" {
			writeBadRequest(w, "task must not be empty")
			return
		}
	}
	if req.Completed != nil {
		completed = *req.Completed
	}

	task, err := h.taskStore.Update(ctx, owner, id, text, completed)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if task == nil {
		writeError(w, r, h.logger, apperr.ErrNotFound)
		return
	}

	h.publish(r, websocket.TaskUpdated(task))

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner := auth.AccountID(r.Context())
	id := idParam(r)

	deleted, err := h.taskStore.Delete(r.Context(), owner, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	h.publish(r, websocket.TaskDeleted(owner, id))

	writeMessage(w, http.StatusOK, "Task deleted")
}
