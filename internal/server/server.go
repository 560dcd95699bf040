// Package server exposes the assistant over HTTP: the answer endpoint, user
// registration and contact forms, and a stats endpoint.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lavka-group/shop-assistant/internal/model"
)

// Answerer runs the question answering pipeline.
type Answerer interface {
	Answer(ctx context.Context, q model.Question) model.Answer
}

// UserService covers the user, form, and stats operations the API exposes.
type UserService interface {
	RegisterUser(ctx context.Context, user model.UserCreate) (*model.User, error)
	GetUser(ctx context.Context, telegramID int64) (*model.User, error)
	SetUserActive(ctx context.Context, telegramID int64, active bool) (*model.User, error)
	SubmitForm(ctx context.Context, telegramID int64, form model.FormCreate) (*model.Form, error)
	GetLastForm(ctx context.Context, telegramID int64) (*model.Form, error)
	Stats(ctx context.Context) (*model.Stats, error)
}

// Options configures the server.
type Options struct {
	Port          int
	AnswerTimeout time.Duration
}

// Server is the HTTP API.
type Server struct {
	answerer Answerer
	users    UserService
	opts     Options
}

// New creates a Server. users may be nil; the user endpoints then answer 503.
func New(answerer Answerer, users UserService, opts Options) *Server {
	if opts.Port == 0 {
		opts.Port = 8000
	}
	if opts.AnswerTimeout == 0 {
		opts.AnswerTimeout = 5 * time.Minute
	}
	return &Server{
		answerer: answerer,
		users:    users,
		opts:     opts,
	}
}

// Router assembles the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/api/answer", s.handleAnswer)

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", s.handleRegisterUser)
		r.Get("/statistics", s.handleStats)
		r.Get("/{telegramID}", s.handleGetUser)
		r.Patch("/{telegramID}/active", s.handleSetActive)
		r.Post("/{telegramID}/form", s.handleSubmitForm)
		r.Get("/{telegramID}/form", s.handleGetForm)
	})

	return r
}

// Start runs the server until the context is canceled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.opts.Port),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.opts.AnswerTimeout + 5*time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	zap.L().Info("starting server", zap.Int("port", s.opts.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	return nil
}
