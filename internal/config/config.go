package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	Port   string
	DBPath string

	JWTSecret string
	TokenTTL  time.Duration

	OTPTTL             time.Duration
	OTPDailyLimit      int
	OTPMaxAttempts     int
	PasswordCooldown   time.Duration
	RequireVerifiedOTP bool

	ScopeBroadcast bool

	// TrustProxy takes client addresses from CF-Connecting-IP and
	// X-Forwarded-For. Only set it behind a proxy that overwrites them.
	TrustProxy bool

	LogLevel  string
	LogFormat string

	PostmarkToken string
	FromEmail     string

	RedisURL        string
	DeveloperAPIKey string
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration from LISTLY_* environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               envOr("LISTLY_PORT", "8080"),
		DBPath:             envOr("LISTLY_DB_PATH", "listly.db"),
		JWTSecret:          os.Getenv("LISTLY_JWT_SECRET"),
		LogLevel:           envOr("LISTLY_LOG_LEVEL", "info"),
		LogFormat:          envOr("LISTLY_LOG_FORMAT", "text"),
		PostmarkToken:      os.Getenv("LISTLY_POSTMARK_TOKEN"),
		FromEmail:          os.Getenv("LISTLY_FROM_EMAIL"),
		RedisURL:           os.Getenv("LISTLY_REDIS_URL"),
		DeveloperAPIKey:    os.Getenv("LISTLY_DEVELOPER_API_KEY"),
		TokenTTL:           168 * time.Hour,
		OTPTTL:             10 * time.Minute,
		OTPDailyLimit:      15,
		OTPMaxAttempts:     5,
		PasswordCooldown:   24 * time.Hour,
		RequireVerifiedOTP: false,
		ScopeBroadcast:     true,
	}

	var err error
	if cfg.TokenTTL, err = envDuration("LISTLY_TOKEN_TTL", cfg.TokenTTL); err != nil {
		return nil, err
	}
	if cfg.OTPTTL, err = envDuration("LISTLY_OTP_TTL", cfg.OTPTTL); err != nil {
		return nil, err
	}
	if cfg.PasswordCooldown, err = envDuration("LISTLY_PASSWORD_COOLDOWN", cfg.PasswordCooldown); err != nil {
		return nil, err
	}
	if cfg.OTPDailyLimit, err = envInt("LISTLY_OTP_DAILY_LIMIT", cfg.OTPDailyLimit); err != nil {
		return nil, err
	}
	if cfg.OTPMaxAttempts, err = envInt("LISTLY_OTP_MAX_ATTEMPTS", cfg.OTPMaxAttempts); err != nil {
		return nil, err
	}
	if cfg.RequireVerifiedOTP, err = envBool("LISTLY_REQUIRE_VERIFIED_OTP", cfg.RequireVerifiedOTP); err != nil {
		return nil, err
	}
	if cfg.ScopeBroadcast, err = envBool("LISTLY_SCOPE_BROADCAST", cfg.ScopeBroadcast); err != nil {
		return nil, err
	}
	if cfg.TrustProxy, err = envBool("LISTLY_TRUST_PROXY", cfg.TrustProxy); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("LISTLY_JWT_SECRET environment variable is required")
	}
	if c.TokenTTL < 0 {
		return fmt.Errorf("LISTLY_TOKEN_TTL must not be negative")
	}
	if c.OTPTTL <= 0 {
		return fmt.Errorf("LISTLY_OTP_TTL must be positive")
	}
	if c.OTPDailyLimit <= 0 {
		return fmt.Errorf("LISTLY_OTP_DAILY_LIMIT must be positive")
	}
	if c.OTPMaxAttempts <= 0 {
		return fmt.Errorf("LISTLY_OTP_MAX_ATTEMPTS must be positive")
	}
	if c.PasswordCooldown < 0 {
		return fmt.Errorf("LISTLY_PASSWORD_COOLDOWN must not be negative")
	}
	if (c.PostmarkToken == "") != (c.FromEmail == "") {
		return fmt.Errorf("LISTLY_POSTMARK_TOKEN and LISTLY_FROM_EMAIL must be set together")
	}
	return nil
}

// EmailConfigured reports whether OTP codes go out through Postmark.
func (c *Config) EmailConfigured() bool {
	return c.PostmarkToken != "" && c.FromEmail != ""
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
