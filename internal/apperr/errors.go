// Package apperr defines the error taxonomy shared by services and handlers.
// Callers wrap these with fmt.Errorf("...: %w", err) and match with errors.Is.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrRateLimited     = errors.New("rate limited")
	ErrCooldownActive  = errors.New("password change cooldown active")
	ErrInvalidOTP      = errors.New("invalid otp")
	ErrExpired         = errors.New("otp expired")
	ErrDeliveryFailed  = errors.New("delivery failed")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("already exists")
)

var public = []error{
	ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrRateLimited, ErrCooldownActive,
	ErrInvalidOTP, ErrExpired, ErrDeliveryFailed, ErrValidation, ErrConflict,
}

// Message returns the text safe to show a client: the matching sentinel's
// message, or "internal error" for anything unclassified.
func Message(err error) string {
	for _, sentinel := range public {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}

// Status maps an error to the HTTP status code clients see for it.
// Unknown errors are 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrCooldownActive):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrInvalidOTP), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrExpired):
		return http.StatusGone
	case errors.Is(err, ErrDeliveryFailed):
		return http.StatusBadGateway
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
