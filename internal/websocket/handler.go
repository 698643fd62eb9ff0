package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	ws "github.com/coder/websocket"

	"github.com/CarlosNatanauan/listly/internal/apperr"
	"github.com/CarlosNatanauan/listly/internal/model"
)

// TokenValidator resolves a session token to its account.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*model.Account, error)
}

// HandleWebSocket returns an HTTP handler that authenticates the caller,
// upgrades the connection and runs it as a Hub client. Browsers cannot set
// headers on the upgrade, so the token travels in the "token" query
// parameter; a Bearer header is accepted as well.
func HandleWebSocket(hub *Hub, tokens TokenValidator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}

		account, err := tokens.Validate(r.Context(), token)
		if err != nil {
			status := apperr.Status(err)
			if status == http.StatusInternalServerError {
				logger.Error("websocket: validate token", "error", err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]string{"error": http.StatusText(status)})
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Native and browser clients connect from arbitrary origins
		})
		if err != nil {
			logger.Warn("websocket: accept", "error", err)
			return
		}

		client := NewClient(hub, conn, account.ID)
		client.Run(r.Context())
	}
}
