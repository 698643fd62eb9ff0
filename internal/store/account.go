package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/CarlosNatanauan/listly/internal/apperr"
	"github.com/CarlosNatanauan/listly/internal/model"
)

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func scanAccount(s scanner) (*model.Account, error) {
	var a model.Account
	var changedAt, otpExpiresAt, windowStart sql.NullTime
	var otpCode sql.NullString
	var verified int

	err := s.Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash, &changedAt,
		&otpCode, &otpExpiresAt, &verified, &a.OTPAttempts, &a.OTPRequestCount, &windowStart, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.PasswordChangedAt = timePtr(changedAt)
	a.OTPExpiresAt = timePtr(otpExpiresAt)
	a.OTPRequestWindowStart = timePtr(windowStart)
	a.OTPVerified = verified != 0
	if otpCode.Valid {
		a.OTPCode = &otpCode.String
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

const accountCols = `id, username, email, password_hash, password_changed_at,
	otp_code, otp_expires_at, otp_verified, otp_attempts, otp_request_count, otp_request_window_start, created_at`

// Create inserts a new account. A duplicate username or email yields apperr.ErrConflict.
func (s *AccountStore) Create(ctx context.Context, username, email, passwordHash string) (*model.Account, error) {
	id := newID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, username, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, username, email, passwordHash, now(),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("insert account: %w", apperr.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *AccountStore) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return s.getBy(ctx, "id", id)
}

func (s *AccountStore) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	return s.getBy(ctx, "username", username)
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return s.getBy(ctx, "email", email)
}

// getBy returns nil, nil when no row matches. column is never user input.
func (s *AccountStore) getBy(ctx context.Context, column, value string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE `+column+` = ?`, value)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by %s: %w", column, err)
	}
	return a, nil
}

// Save writes the credential and OTP state of an existing account.
func (s *AccountStore) Save(ctx context.Context, a *model.Account) error {
	var code sql.NullString
	if a.OTPCode != nil {
		code = sql.NullString{String: *a.OTPCode, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, password_changed_at = ?, otp_code = ?, otp_expires_at = ?,
		 otp_verified = ?, otp_attempts = ?, otp_request_count = ?, otp_request_window_start = ? WHERE id = ?`,
		a.PasswordHash, nullTime(a.PasswordChangedAt), code, nullTime(a.OTPExpiresAt),
		boolInt(a.OTPVerified), a.OTPAttempts, a.OTPRequestCount, nullTime(a.OTPRequestWindowStart), a.ID,
	)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("save account %s: %w", a.ID, apperr.ErrNotFound)
	}
	return nil
}

func (s *AccountStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}
