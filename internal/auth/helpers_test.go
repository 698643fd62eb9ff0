package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/CarlosNatanauan/listly/internal/database"
	"github.com/CarlosNatanauan/listly/internal/lock"
	"github.com/CarlosNatanauan/listly/internal/logging"
	"github.com/CarlosNatanauan/listly/internal/model"
	"github.com/CarlosNatanauan/listly/internal/store"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t.UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sentEmail struct {
	to, subject, body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (n *recordingNotifier) SendEmail(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentEmail{to, subject, body})
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

var errSMTPDown = errors.New("smtp down")

type resetFixture struct {
	engine   *ResetEngine
	accounts *store.AccountStore
	clock    *fakeClock
	notifier *recordingNotifier
	account  *model.Account
}

// enforcedResetConfig is the default config with ChangePassword gated on a
// verified code.
func enforcedResetConfig() ResetConfig {
	cfg := DefaultResetConfig()
	cfg.RequireVerified = true
	return cfg
}

// setupResetTest starts the clock at noon UTC on a fixed day and creates one
// account, alice@example.com, with password "old-password".
func setupResetTest(t *testing.T, cfg ResetConfig) *resetFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	accounts := store.NewAccountStore(db)
	hash, err := HashPassword("old-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	a, err := accounts.Create(context.Background(), "alice", "alice@example.com", hash)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	clock := newFakeClock(time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC))
	notifier := &recordingNotifier{}
	engine := NewResetEngine(accounts, lock.NewMemory(), notifier, cfg, logging.Discard())
	engine.now = clock.Now

	return &resetFixture{
		engine:   engine,
		accounts: accounts,
		clock:    clock,
		notifier: notifier,
		account:  a,
	}
}

func (f *resetFixture) reload(t *testing.T) *model.Account {
	t.Helper()
	a, err := f.accounts.GetByID(context.Background(), f.account.ID)
	if err != nil || a == nil {
		t.Fatalf("reload account: %v, %v", a, err)
	}
	return a
}
