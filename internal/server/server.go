package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/studentrecords/apiserver/config"
	"github.com/studentrecords/apiserver/internal/db"
	"github.com/studentrecords/apiserver/internal/handlers"
	"github.com/studentrecords/apiserver/internal/logging"
	"github.com/studentrecords/apiserver/internal/metrics"
	"github.com/studentrecords/apiserver/internal/mq"
	"github.com/studentrecords/apiserver/internal/notify"
	"github.com/studentrecords/apiserver/internal/security"
	"github.com/studentrecords/apiserver/internal/services"
	"github.com/studentrecords/apiserver/internal/store"
)

// ErrJWTSecretRequired is returned when JWT_SECRET is empty.
var ErrJWTSecretRequired = errors.New("JWT_SECRET is required")

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     chi.Router
	db         *sql.DB
	queue      mq.Backend
	lg         zerolog.Logger
}

// Deps are the process resources the router is built on.
type Deps struct {
	DB      *sql.DB
	Sender  notify.Sender
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// New opens the database and mail transport and constructs a Server.
func New(ctx context.Context, cfg config.Config, lg zerolog.Logger) (*Server, error) {
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, ErrJWTSecretRequired
	}

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	sender, queue, err := NewSender(ctx, cfg, lg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	router, err := NewRouter(cfg, Deps{
		DB:      dbConn,
		Sender:  sender,
		Metrics: metrics.New(),
		Logger:  lg,
	})
	if err != nil {
		_ = dbConn.Close()
		if queue != nil {
			_ = queue.Close()
		}
		return nil, err
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
		lg:         lg,
	}, nil
}

// NewSender builds the mail Sender selected by MAIL_TRANSPORT. Queue
// transports also return the backend, which the caller must close.
func NewSender(ctx context.Context, cfg config.Config, lg zerolog.Logger) (notify.Sender, mq.Backend, error) {
	switch strings.ToLower(cfg.Mail.Transport) {
	case config.MailTransportSMTP:
		sender, err := notify.NewSMTPSender(cfg.Mail.SMTP, lg)
		return sender, nil, err
	case config.MailTransportLog, "":
		return notify.NewLogSender(lg), nil, nil
	case config.MailTransportRabbitMQ, config.MailTransportPubSub:
		backend, err := mq.Open(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open mail queue: %w", err)
		}
		return notify.NewQueueSender(backend, cfg.Mail.Queue), backend, nil
	default:
		return nil, nil, fmt.Errorf("unknown mail transport %q", cfg.Mail.Transport)
	}
}

// NewRouter wires repositories, services and handlers onto a chi router.
func NewRouter(cfg config.Config, deps Deps) (chi.Router, error) {
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, ErrJWTSecretRequired
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	lg := deps.Logger

	notifier, err := notify.NewService(cfg.APIURL, cfg.Mail.From, deps.Sender, deps.Metrics, lg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(deps.DB)
	studentRepo := store.NewStudentRepository(deps.DB)

	sessions := security.NewSessionIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	authService := services.NewAuthService(
		userRepo,
		security.NewBcryptHasher(),
		sessions,
		notifier,
		services.AuthOptions{
			LegacyPlaintextMigration: cfg.Auth.LegacyPlaintextMigration,
			Recorder:                 deps.Metrics,
		},
		lg,
	)
	userService := services.NewUserService(userRepo, studentRepo)
	studentService := services.NewStudentService(studentRepo)

	authMiddleware := handlers.RequireAuth(sessions)
	var studentMiddleware func(http.Handler) http.Handler
	if cfg.Auth.StudentsRequireAuth {
		studentMiddleware = authMiddleware
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logging.RequestLogger(lg),
		deps.Metrics.Middleware,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	router.Route("/api", func(r chi.Router) {
		handlers.AuthRouter(r, authService, authMiddleware, lg)
		handlers.ProfileRouter(r, userService, authMiddleware, lg)
		r.Route("/student", func(r chi.Router) {
			handlers.StudentRouter(r, studentService, studentMiddleware, lg)
		})
	})

	return router, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.lg.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the database and queue.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.queue != nil {
		if qerr := s.queue.Close(); qerr != nil {
			s.lg.Warn().Err(qerr).Msg("close mail queue")
		}
	}
	if s.db != nil {
		if dberr := s.db.Close(); dberr != nil {
			s.lg.Warn().Err(dberr).Msg("close database")
		}
	}
	return err
}
