package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LISTLY_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "listly.db", cfg.DBPath)
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 15, cfg.OTPDailyLimit)
	assert.Equal(t, 5, cfg.OTPMaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.PasswordCooldown)
	assert.False(t, cfg.RequireVerifiedOTP, "verified codes are opt-in")
	assert.True(t, cfg.ScopeBroadcast)
	assert.False(t, cfg.TrustProxy)
	assert.False(t, cfg.EmailConfigured())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTLY_JWT_SECRET", "secret")
	t.Setenv("LISTLY_PORT", "9090")
	t.Setenv("LISTLY_TOKEN_TTL", "0")
	t.Setenv("LISTLY_OTP_DAILY_LIMIT", "3")
	t.Setenv("LISTLY_OTP_MAX_ATTEMPTS", "3")
	t.Setenv("LISTLY_REQUIRE_VERIFIED_OTP", "true")
	t.Setenv("LISTLY_SCOPE_BROADCAST", "false")
	t.Setenv("LISTLY_TRUST_PROXY", "true")
	t.Setenv("LISTLY_POSTMARK_TOKEN", "pm")
	t.Setenv("LISTLY_FROM_EMAIL", "noreply@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, time.Duration(0), cfg.TokenTTL)
	assert.Equal(t, 3, cfg.OTPDailyLimit)
	assert.Equal(t, 3, cfg.OTPMaxAttempts)
	assert.True(t, cfg.RequireVerifiedOTP)
	assert.False(t, cfg.ScopeBroadcast)
	assert.True(t, cfg.TrustProxy)
	assert.True(t, cfg.EmailConfigured())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"LISTLY_JWT_SECRET": ""}},
		{"bad duration", map[string]string{"LISTLY_OTP_TTL": "ten minutes"}},
		{"zero limit", map[string]string{"LISTLY_OTP_DAILY_LIMIT": "0"}},
		{"zero attempts", map[string]string{"LISTLY_OTP_MAX_ATTEMPTS": "0"}},
		{"bad bool", map[string]string{"LISTLY_SCOPE_BROADCAST": "maybe"}},
		{"half postmark", map[string]string{"LISTLY_POSTMARK_TOKEN": "pm"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LISTLY_JWT_SECRET", "secret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LISTLY_DOTENV_PROBE=from-file\n"), 0o600))
	t.Setenv("LISTLY_DOTENV_PROBE", "")
	os.Unsetenv("LISTLY_DOTENV_PROBE")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("LISTLY_DOTENV_PROBE"))
}
