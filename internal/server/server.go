package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/CarlosNatanauan/listly/internal/auth"
	"github.com/CarlosNatanauan/listly/internal/config"
	"github.com/CarlosNatanauan/listly/internal/email"
	"github.com/CarlosNatanauan/listly/internal/handler"
	"github.com/CarlosNatanauan/listly/internal/lock"
	"github.com/CarlosNatanauan/listly/internal/middleware"
	"github.com/CarlosNatanauan/listly/internal/store"
	ws "github.com/CarlosNatanauan/listly/internal/websocket"
)

const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

// Options carries the collaborators that depend on deployment. Nil fields
// fall back to in-process implementations.
type Options struct {
	Notifier auth.Notifier
	Locker   lock.Locker
}

type Server struct {
	db          *sql.DB
	cfg         *config.Config
	hub         *ws.Hub
	broadcaster *ws.Broadcaster
	tokens      *auth.TokenService
	reset       *auth.ResetEngine
	authH       *handler.AuthHandler
	noteH       *handler.NoteHandler
	taskH       *handler.TaskHandler
	feedbackH   *handler.FeedbackHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, opts Options, logger *slog.Logger) *Server {
	if opts.Notifier == nil {
		opts.Notifier = email.NewLogSender(logger.With("component", "email"))
	}
	if opts.Locker == nil {
		opts.Locker = lock.NewMemory()
	}

	hub := ws.NewHub(logger.With("component", "websocket"))
	broadcaster := ws.NewBroadcaster(hub, cfg.ScopeBroadcast, logger.With("component", "broadcast"))

	accountStore := store.NewAccountStore(db)
	noteStore := store.NewNoteStore(db)
	taskStore := store.NewTaskStore(db)
	feedbackStore := store.NewFeedbackStore(db)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, accountStore)
	reset := auth.NewResetEngine(accountStore, opts.Locker, opts.Notifier, auth.ResetConfig{
		OTPTTL:          cfg.OTPTTL,
		DailyLimit:      cfg.OTPDailyLimit,
		MaxAttempts:     cfg.OTPMaxAttempts,
		Cooldown:        cfg.PasswordCooldown,
		RequireVerified: cfg.RequireVerifiedOTP,
	}, logger.With("component", "reset"))

	handlerLogger := logger.With("component", "handler")

	return &Server{
		db:          db,
		cfg:         cfg,
		hub:         hub,
		broadcaster: broadcaster,
		tokens:      tokens,
		reset:       reset,
		authH:       handler.NewAuthHandler(accountStore, tokens, reset, handlerLogger),
		noteH:       handler.NewNoteHandler(noteStore, broadcaster, handlerLogger),
		taskH:       handler.NewTaskHandler(taskStore, broadcaster, handlerLogger),
		feedbackH:   handler.NewFeedbackHandler(feedbackStore, handlerLogger),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// Hub returns the connection registry.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(s.logger.With("component", "http")))
	r.Use(chimw.Recoverer)

	health := handler.NewHealthHandler(s.db, s.hub)
	r.Get("/", health.Root)
	r.Get("/health", health.Health)

	limited := middleware.RateLimit(s.rateLimiter, middleware.ClientIP(s.cfg.TrustProxy), authRateLimit, authRateWindow)
	requireAuth := middleware.RequireAuth(s.tokens, s.logger.With("component", "auth"))

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limited)
			r.Post("/register", s.authH.Register)
			r.Post("/login", s.authH.Login)
			r.Post("/request-reset", s.authH.RequestReset)
			r.Post("/verify-otp", s.authH.VerifyOTP)
			r.Post("/change-password", s.authH.ChangePassword)
			r.Post("/expire-otp", s.authH.ExpireOTP)
		})
		r.With(requireAuth).Get("/me", s.authH.Me)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", s.noteH.List)
			r.Post("/", s.noteH.Create)
			r.Get("/{id}", s.noteH.Get)
			r.Put("/{id}", s.noteH.Update)
			r.Delete("/{id}", s.noteH.Delete)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.taskH.List)
			r.Post("/", s.taskH.Create)
			r.Get("/{id}", s.taskH.Get)
			r.Put("/{id}", s.taskH.Update)
			r.Delete("/{id}", s.taskH.Delete)
		})

		r.Post("/feedback/submit", s.feedbackH.Submit)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAPIKey(s.cfg.DeveloperAPIKey))
		r.Get("/feedback/all", s.feedbackH.All)
		r.Delete("/feedback/delete/{id}", s.feedbackH.Delete)
		r.Delete("/feedback/delete-all", s.feedbackH.DeleteAll)
	})

	r.Get("/ws", ws.HandleWebSocket(s.hub, s.tokens, s.logger.With("component", "websocket")))

	return r
}
