package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/CarlosNatanauan/listly/internal/auth"
	"github.com/CarlosNatanauan/listly/internal/config"
	"github.com/CarlosNatanauan/listly/internal/database"
	"github.com/CarlosNatanauan/listly/internal/email"
	"github.com/CarlosNatanauan/listly/internal/lock"
	"github.com/CarlosNatanauan/listly/internal/logging"
	"github.com/CarlosNatanauan/listly/internal/server"
)

const (
	shutdownTimeout = 5 * time.Second
	cleanupInterval = 5 * time.Minute
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	Port   string
	DBPath string

	// ready, when set, receives the bound address once the listener is up.
	ready func(addr string)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		Long: `Run the listly API.

Configuration comes from LISTLY_* environment variables. The --port and --db
flags override LISTLY_PORT and LISTLY_DB_PATH. The server stops cleanly on
SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.Port != "" {
				cfg.Port = opts.Port
			}
			if opts.DBPath != "" {
				cfg.DBPath = opts.DBPath
			}
			logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
			return runServe(cmd.Context(), cfg, opts, logger)
		},
	}

	cmd.Flags().StringVarP(&opts.Port, "port", "p", "", "listen port (overrides LISTLY_PORT)")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "SQLite database path (overrides LISTLY_DB_PATH)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, opts *ServeOptions, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	locker, closeLocker, err := newLocker(cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	srv := server.New(db, cfg, server.Options{
		Notifier: newNotifier(cfg, logger),
		Locker:   locker,
	}, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go srv.RateLimiter().RunCleanup(ctx, cleanupInterval)

	httpServer := &http.Server{
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	logger.Info("listly running", "addr", ln.Addr().String(), "db", cfg.DBPath,
		"redis_locks", cfg.RedisURL != "", "email", cfg.EmailConfigured())
	if opts.ready != nil {
		opts.ready(ln.Addr().String())
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// newLocker returns a Redis-backed locker when LISTLY_REDIS_URL is set so
// reset attempts serialize across replicas.
func newLocker(cfg *config.Config, logger *slog.Logger) (lock.Locker, func(), error) {
	if cfg.RedisURL == "" {
		return lock.NewMemory(), func() {}, nil
	}
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse LISTLY_REDIS_URL: %w", err)
	}
	client := redis.NewClient(redisOpts)
	return lock.NewRedis(client, lock.WithLogger(logger.With("component", "lock"))), func() { client.Close() }, nil
}

func newNotifier(cfg *config.Config, logger *slog.Logger) auth.Notifier {
	if cfg.EmailConfigured() {
		return email.NewClient(cfg.PostmarkToken, cfg.FromEmail)
	}
	logger.Warn("postmark not configured, reset codes will be logged")
	return email.NewLogSender(logger.With("component", "email"))
}
