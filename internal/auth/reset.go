package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/CarlosNatanauan/listly/internal/apperr"
	"github.com/CarlosNatanauan/listly/internal/lock"
	"github.com/CarlosNatanauan/listly/internal/model"
)

// Notifier delivers a message to an email address.
type Notifier interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// AccountRepo is the part of the account store the reset engine needs.
type AccountRepo interface {
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	Save(ctx context.Context, a *model.Account) error
}

// ResetConfig tunes the reset flow. MaxAttempts is the number of wrong
// guesses a code survives; the last one clears it.
type ResetConfig struct {
	OTPTTL          time.Duration
	DailyLimit      int
	MaxAttempts     int
	Cooldown        time.Duration
	RequireVerified bool
}

// DefaultResetConfig leaves ChangePassword ungated by VerifyOTP. Set
// RequireVerified to demand a verified code.
func DefaultResetConfig() ResetConfig {
	return ResetConfig{
		OTPTTL:      10 * time.Minute,
		DailyLimit:  15,
		MaxAttempts: 5,
		Cooldown:    24 * time.Hour,
	}
}

// ResetEngine runs the one-time-passcode password reset flow. Every
// operation holds the account's lock for its read-modify-write.
type ResetEngine struct {
	accounts AccountRepo
	locker   lock.Locker
	notifier Notifier
	cfg      ResetConfig
	logger   *slog.Logger
	now      func() time.Time
	newCode  func() (string, error)
}

func NewResetEngine(accounts AccountRepo, locker lock.Locker, notifier Notifier, cfg ResetConfig, logger *slog.Logger) *ResetEngine {
	return &ResetEngine{
		accounts: accounts,
		locker:   locker,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newCode:  generateCode,
	}
}

// generateCode returns a uniformly random six digit code, leading zeros kept.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// withAccount looks the account up by email, locks it, and hands fn the
// freshly re-read record.
func (e *ResetEngine) withAccount(ctx context.Context, email string, fn func(a *model.Account) error) error {
	found, err := e.accounts.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if found == nil {
		return fmt.Errorf("account %q: %w", email, apperr.ErrNotFound)
	}

	unlock, err := e.locker.Lock(ctx, found.ID)
	if err != nil {
		return fmt.Errorf("lock account: %w", err)
	}
	defer unlock()

	a, err := e.accounts.GetByID(ctx, found.ID)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("account %q: %w", email, apperr.ErrNotFound)
	}
	return fn(a)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RequestReset issues a fresh code and mails it. The code is persisted before
// delivery, so apperr.ErrDeliveryFailed leaves a usable code behind.
func (e *ResetEngine) RequestReset(ctx context.Context, email string) error {
	var code string
	err := e.withAccount(ctx, email, func(a *model.Account) error {
		now := e.now()
		ws := a.OTPRequestWindowStart
		if ws != nil && !ws.Before(startOfDay(now)) {
			if a.OTPRequestCount >= e.cfg.DailyLimit {
				return fmt.Errorf("%d reset requests today: %w", a.OTPRequestCount, apperr.ErrRateLimited)
			}
			a.OTPRequestCount++
		} else {
			a.OTPRequestWindowStart = &now
			a.OTPRequestCount = 1
		}

		var err error
		if code, err = e.newCode(); err != nil {
			return err
		}
		a.SetOTP(code, now.Add(e.cfg.OTPTTL))
		return e.accounts.Save(ctx, a)
	})
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Your Listly password reset code is %s. It expires in %d minutes.",
		code, int(e.cfg.OTPTTL.Minutes()))
	if err := e.notifier.SendEmail(ctx, email, "Your password reset code", body); err != nil {
		e.logger.Error("otp delivery failed", "error", err)
		return fmt.Errorf("send otp: %w: %w", apperr.ErrDeliveryFailed, err)
	}
	return nil
}

// VerifyOTP checks a code without consuming it. Each wrong guess is counted
// against the active code, and the code is dropped once MaxAttempts is hit.
func (e *ResetEngine) VerifyOTP(ctx context.Context, email, code string) error {
	return e.withAccount(ctx, email, func(a *model.Account) error {
		if a.OTPCode == nil {
			return apperr.ErrInvalidOTP
		}
		if subtle.ConstantTimeCompare([]byte(*a.OTPCode), []byte(code)) != 1 {
			return e.recordFailedGuess(ctx, a)
		}
		if e.now().After(*a.OTPExpiresAt) {
			return apperr.ErrExpired
		}
		if !e.cfg.RequireVerified || a.OTPVerified {
			return nil
		}
		a.OTPVerified = true
		return e.accounts.Save(ctx, a)
	})
}

func (e *ResetEngine) recordFailedGuess(ctx context.Context, a *model.Account) error {
	a.OTPAttempts++
	if e.cfg.MaxAttempts > 0 && a.OTPAttempts >= e.cfg.MaxAttempts {
		a.ClearOTP()
		if err := e.accounts.Save(ctx, a); err != nil {
			return err
		}
		e.logger.Warn("otp cleared after failed attempts", "account_id", a.ID, "attempts", e.cfg.MaxAttempts)
		return fmt.Errorf("%d wrong codes: %w", e.cfg.MaxAttempts, apperr.ErrRateLimited)
	}
	if err := e.accounts.Save(ctx, a); err != nil {
		return err
	}
	return apperr.ErrInvalidOTP
}

// ChangePassword sets a new password and clears the reset attempt.
func (e *ResetEngine) ChangePassword(ctx context.Context, email, newPassword string) error {
	return e.withAccount(ctx, email, func(a *model.Account) error {
		if newPassword == "" {
			return fmt.Errorf("new password is empty: %w", apperr.ErrValidation)
		}

		now := e.now()
		if a.PasswordChangedAt != nil && now.Sub(*a.PasswordChangedAt) < e.cfg.Cooldown {
			return fmt.Errorf("password changed at %s: %w", a.PasswordChangedAt.Format(time.RFC3339), apperr.ErrCooldownActive)
		}

		if e.cfg.RequireVerified {
			if a.OTPCode == nil || !a.OTPVerified {
				return fmt.Errorf("no verified code: %w", apperr.ErrInvalidOTP)
			}
			if now.After(*a.OTPExpiresAt) {
				return apperr.ErrExpired
			}
		}

		hash, err := HashPassword(newPassword)
		if err != nil {
			return err
		}
		a.PasswordHash = hash
		a.PasswordChangedAt = &now
		a.ClearOTP()
		if err := e.accounts.Save(ctx, a); err != nil {
			return err
		}
		e.logger.Info("password changed", "account_id", a.ID)
		return nil
	})
}

// ExpireOTP drops any active code. Calling it with no code active is fine.
func (e *ResetEngine) ExpireOTP(ctx context.Context, email string) error {
	return e.withAccount(ctx, email, func(a *model.Account) error {
		if a.OTPCode == nil && !a.OTPVerified {
			return nil
		}
		a.ClearOTP()
		return e.accounts.Save(ctx, a)
	})
}
