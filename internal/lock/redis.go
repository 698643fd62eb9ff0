package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KEYS[1] = lock key, ARGV[1] = owner token.
// Deletes the key only if this holder still owns it.
var releaseLua = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

var ErrLockTimeout = errors.New("lock: timed out waiting for lock")

// Redis is a Locker shared by every process using the same Redis instance.
// A lock expires after TTL even if its holder never releases it.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
	logger *slog.Logger
}

type RedisOption func(*Redis)

func WithTTL(d time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = d }
}

// WithWait bounds how long Lock keeps retrying a held key.
func WithWait(d time.Duration) RedisOption {
	return func(r *Redis) { r.wait = d }
}

func WithPrefix(p string) RedisOption {
	return func(r *Redis) { r.prefix = p }
}

// WithLogger sets where failed releases are reported.
func WithLogger(l *slog.Logger) RedisOption {
	return func(r *Redis) { r.logger = l }
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		prefix: "listly:lock:",
		ttl:    10 * time.Second,
		wait:   5 * time.Second,
		retry:  20 * time.Millisecond,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	k := r.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(r.wait)

	for {
		ok, err := r.client.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("acquire lock %s: %w", key, ErrLockTimeout)
		}

		t := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	return func() {
		// The caller's context may already be cancelled; release regardless.
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		n, err := releaseLua.Run(ctx, r.client, []string{k}, token).Int()
		switch {
		case err != nil:
			r.logger.Error("release lock failed, key held until ttl", "key", k, "ttl", r.ttl, "error", err)
		case n == 0:
			r.logger.Warn("lock expired before release", "key", k, "ttl", r.ttl)
		}
	}, nil
}
