package handler

import (
	"database/sql"
	"net/http"

	"github.com/CarlosNatanauan/listly/internal/websocket"
)

type HealthHandler struct {
	db  *sql.DB
	hub *websocket.Hub
}

func NewHealthHandler(db *sql.DB, hub *websocket.Hub) *HealthHandler {
	return &HealthHandler{db: db, hub: hub}
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Listly API is running"))
}

// Health reports database reachability and the number of live sync
// connections.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"connections": h.hub.Count(),
	})
}
