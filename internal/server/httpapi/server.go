// Package httpapi exposes the account and task resources over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sidhlee/task-manager-api/internal/logging"
	"github.com/sidhlee/task-manager-api/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type HTTPServer struct {
	address     string
	corsOrigins []string
	logger      logging.Logger
	tokens      *services.TokenService
	users       *services.UserService
	tasks       *services.TaskService
}

func NewHTTPServer(address string, corsOrigins []string, l logging.Logger, ts *services.TokenService, us *services.UserService, tks *services.TaskService) *HTTPServer {
	return &HTTPServer{
		address:     address,
		corsOrigins: corsOrigins,
		logger:      l.With("module", "http_server"),
		tokens:      ts,
		users:       us,
		tasks:       tks,
	}
}

// Router builds the route tree. Everything under /tasks and the /users/me
// family sits behind the authenticate middleware.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Get("/{id}/avatar", s.handleGetAvatar)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Post("/logout", s.handleLogout)
			r.Post("/logoutAll", s.handleLogoutAll)
			r.Get("/me", s.handleMe)
			r.Patch("/me", s.handleUpdateMe)
			r.Delete("/me", s.handleDeleteMe)
			r.Post("/me/avatar", s.handleUploadAvatar)
			r.Delete("/me/avatar", s.handleDeleteAvatar)
		})
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/", s.handleCreateTask)
		r.Get("/", s.handleListTasks)
		r.Get("/{id}", s.handleGetTask)
		r.Patch("/{id}", s.handleUpdateTask)
		r.Delete("/{id}", s.handleDeleteTask)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-done
}
