package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/CarlosNatanauan/listly/internal/auth"
	"github.com/CarlosNatanauan/listly/internal/model"
	"github.com/CarlosNatanauan/listly/internal/store"
)

type FeedbackHandler struct {
	feedbackStore *store.FeedbackStore
	logger        *slog.Logger
}

func NewFeedbackHandler(fs *store.FeedbackStore, logger *slog.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedbackStore: fs, logger: logger}
}

type feedbackRequest struct {
	Rating             int    `json:"rating"`
	AdditionalComments string `json:"additionalComments"`
}

func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Rating < model.MinRating || req.Rating > model.MaxRating {
		writeBadRequest(w, fmt.Sprintf("rating must be between %d and %d", model.MinRating, model.MaxRating))
		return
	}

	f, err := h.feedbackStore.Create(r.Context(), auth.AccountID(r.Context()), req.Rating, strings.TrimSpace(req.AdditionalComments))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Feedback submitted successfully",
		"feedback": f,
	})
}

func (h *FeedbackHandler) All(w http.ResponseWriter, r *http.Request) {
	items, err := h.feedbackStore.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *FeedbackHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.feedbackStore.Delete(r.Context(), idParam(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "feedback not found"})
		return
	}
	writeMessage(w, http.StatusOK, "Feedback deleted successfully")
}

func (h *FeedbackHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.feedbackStore.DeleteAll(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "All feedback deleted successfully",
		"deleted": n,
	})
}
