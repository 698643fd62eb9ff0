package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/CarlosNatanauan/listly/internal/apperr"
	"github.com/CarlosNatanauan/listly/internal/auth"
	"github.com/CarlosNatanauan/listly/internal/store"
)

type AuthHandler struct {
	accounts *store.AccountStore
	tokens   *auth.TokenService
	reset    *auth.ResetEngine
	logger   *slog.Logger
}

func NewAuthHandler(as *store.AccountStore, ts *auth.TokenService, re *auth.ResetEngine, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: as, tokens: ts, reset: re, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)
	switch {
	case req.Username == "":
		writeBadRequest(w, "username is required")
		return
	case !strings.Contains(req.Email, "@"):
		writeBadRequest(w, "a valid email is required")
		return
	case req.Password == "":
		writeBadRequest(w, "password is required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	account, err := h.accounts.Create(r.Context(), req.Username, req.Email, hash)
	if errors.Is(err, apperr.ErrConflict) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username or email already registered"})
		return
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "account registered", "account_id", account.ID)
	writeJSON(w, http.StatusCreated, account)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accounts.GetByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if account == nil || !auth.CheckPassword(account.PasswordHash, req.Password) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	token, err := h.tokens.Issue(account)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token, "userId": account.ID})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.GetByID(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if account == nil {
		writeError(w, r, h.logger, apperr.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

type resetRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

func (h *AuthHandler) decodeReset(w http.ResponseWriter, r *http.Request) (resetRequest, bool) {
	var req resetRequest
	if !decodeJSON(w, r, &req) {
		return req, false
	}
	req.Email = normalizeEmail(req.Email)
	if req.Email == "" {
		writeBadRequest(w, "email is required")
		return req, false
	}
	return req, true
}

func (h *AuthHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeReset(w, r)
	if !ok {
		return
	}
	if err := h.reset.RequestReset(r.Context(), req.Email); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP sent to your email")
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeReset(w, r)
	if !ok {
		return
	}
	if err := h.reset.VerifyOTP(r.Context(), req.Email, strings.TrimSpace(req.OTP)); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP verified")
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeReset(w, r)
	if !ok {
		return
	}
	if err := h.reset.ChangePassword(r.Context(), req.Email, req.NewPassword); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password changed")
}

func (h *AuthHandler) ExpireOTP(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeReset(w, r)
	if !ok {
		return
	}
	if err := h.reset.ExpireOTP(r.Context(), req.Email); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP expired")
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
