package cli

import (
	"bytes"
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CarlosNatanauan/listly/internal/config"
	"github.com/CarlosNatanauan/listly/internal/email"
	"github.com/CarlosNatanauan/listly/internal/lock"
	"github.com/CarlosNatanauan/listly/internal/logging"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "listly", cmd.Use)

	envFlag := cmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, envFlag)
	assert.Equal(t, ".env", envFlag.DefValue)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"serve", "migrate"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestServeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	port := serve.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "p", port.Shorthand)
	assert.NotNil(t, serve.Flags().Lookup("db"))
}

func TestServeRequiresSecret(t *testing.T) {
	t.Setenv("LISTLY_JWT_SECRET", "")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"serve", "--env-file", filepath.Join(t.TempDir(), "missing.env")})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LISTLY_JWT_SECRET")
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "listly.db")

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"migrate", "--db", dbPath, "--env-file", filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), dbPath)
	assert.Contains(t, out.String(), "schema version 2")
}

func TestRunServeStopsOnCancel(t *testing.T) {
	cfg := &config.Config{
		Port:             "0",
		DBPath:           filepath.Join(t.TempDir(), "serve.db"),
		JWTSecret:        "secret",
		TokenTTL:         time.Hour,
		OTPTTL:           10 * time.Minute,
		OTPDailyLimit:    15,
		PasswordCooldown: 24 * time.Hour,
		ScopeBroadcast:   true,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- runServe(ctx, cfg, &ServeOptions{ready: func(addr string) { addrCh <- addr }}, logging.Discard())
	}()

	var addr string
	select {
	case addr = <-addrCh:
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewLocker(t *testing.T) {
	l, closeFn, err := newLocker(&config.Config{}, logging.Discard())
	require.NoError(t, err)
	closeFn()
	assert.IsType(t, &lock.Memory{}, l)

	mr := miniredis.RunT(t)
	l, closeFn, err = newLocker(&config.Config{RedisURL: "redis://" + mr.Addr()}, logging.Discard())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &lock.Redis{}, l)

	unlock, err := l.Lock(context.Background(), "acct-1")
	require.NoError(t, err)
	unlock()

	_, _, err = newLocker(&config.Config{RedisURL: "not a url"}, logging.Discard())
	assert.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	n := newNotifier(&config.Config{}, logging.Discard())
	assert.IsType(t, &email.LogSender{}, n)

	n = newNotifier(&config.Config{PostmarkToken: "tok", FromEmail: "noreply@example.com"}, logging.Discard())
	assert.IsType(t, &email.Client{}, n)
}
