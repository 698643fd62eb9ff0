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

type NoteHandler struct {
	noteStore *store.NoteStore
	events    *websocket.Broadcaster
	logger    *slog.Logger
}

func NewNoteHandler(ns *store.NoteStore, events *websocket.Broadcaster, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{noteStore: ns, events: events, logger: logger}
}

// publish pushes a committed change to the caller's other live connections.
func (h *NoteHandler) publish(r *http.Request, ev websocket.Event) {
	if h.events != nil {
		h.events.Publish(r.Context(), ev.FromConn(r.Header.Get(middleware.ConnectionIDHeader)))
	}
}

type noteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Content == nil || strings.TrimSpace(*req.Content) == "" {
		writeBadRequest(w, "content is required")
		return
	}
	var title string
	if req.Title != nil {
		title = strings.TrimSpace(*req.Title)
	}

	note, err := h.noteStore.Create(r.Context(), auth.AccountID(r.Context()), title, *req.Content)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.publish(r, websocket.NoteCreated(note))

	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.noteStore.List(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	note, err := h.noteStore.Get(r.Context(), auth.AccountID(r.Context()), idParam(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if note == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "note not found"})
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Update changes only the fields present in the body.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	owner := auth.AccountID(ctx)
	id := idParam(r)

	existing, err := h.noteStore.Get(ctx, owner, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "note not found"})
		return
	}

	title, content := existing.Title, existing.Content
	if req.Title != nil {
		title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			writeBadRequest(w, "content must not be empty")
			return
		}
		content = *req.Content
	}

	note, err := h.noteStore.Update(ctx, owner, id, title, content)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if note == nil {
		writeError(w, r, h.logger, apperr.ErrNotFound)
		return
	}

	h.publish(r, websocket.NoteUpdated(note))

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner := auth.AccountID(r.Context())
	id := idParam(r)

	deleted, err := h.noteStore.Delete(r.Context(), owner, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "note not found"})
		return
	}

	h.publish(r, websocket.NoteDeleted(owner, id))

	writeMessage(w, http.StatusOK, "Note deleted")
}
