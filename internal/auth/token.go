package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/CarlosNatanauan/listly/internal/apperr"
	"github.com/CarlosNatanauan/listly/internal/model"
)

// AccountGetter is the slice of the account store the token service reads.
type AccountGetter interface {
	GetByID(ctx context.Context, id string) (*model.Account, error)
}

// claims pins a token to the password it was issued under. CredentialAt is
// the account's password-change time in Unix nanoseconds at issue, zero if
// the password was never changed.
type claims struct {
	jwt.RegisteredClaims
	CredentialAt int64 `json:"pwc,omitempty"`
}

func credentialStamp(a *model.Account) int64 {
	if a.PasswordChangedAt == nil {
		return 0
	}
	return a.PasswordChangedAt.UnixNano()
}

// TokenService issues and validates session tokens. A token is only as
// fresh as the account's last password change: anything signed before it
// is rejected.
type TokenService struct {
	secret   []byte
	ttl      time.Duration
	accounts AccountGetter
	now      func() time.Time
}

// NewTokenService creates a token service. A ttl of zero issues tokens
// without an expiry.
func NewTokenService(secret string, ttl time.Duration, accounts AccountGetter) *TokenService {
	return &TokenService{
		secret:   []byte(secret),
		ttl:      ttl,
		accounts: accounts,
		now:      time.Now,
	}
}

// Issue signs a token for the account.
func (s *TokenService) Issue(a *model.Account) (string, error) {
	now := s.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  a.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
		CredentialAt: credentialStamp(a),
	}
	if s.ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate resolves a token to its account. It returns apperr.ErrUnauthenticated
// for an empty token and apperr.ErrForbidden for anything that does not verify.
func (s *TokenService) Validate(ctx context.Context, tokenString string) (*model.Account, error) {
	if tokenString == "" {
		return nil, apperr.ErrUnauthenticated
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	var c claims
	_, err := parser.ParseWithClaims(tokenString, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w: %w", apperr.ErrForbidden, err)
	}
	if c.Subject == "" || c.IssuedAt == nil {
		return nil, fmt.Errorf("token missing sub or iat: %w", apperr.ErrForbidden)
	}

	account, err := s.accounts.GetByID(ctx, c.Subject)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("token account gone: %w", apperr.ErrForbidden)
	}

	// iat only has whole seconds; the stamp is exact.
	if c.CredentialAt != credentialStamp(account) {
		return nil, fmt.Errorf("token predates password change: %w", apperr.ErrForbidden)
	}
	return account, nil
}
