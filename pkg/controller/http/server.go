package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ledgerline/refundgate/pkg/service/hub"
	"github.com/ledgerline/refundgate/pkg/usecase"
	"github.com/ledgerline/refundgate/pkg/utils/logging"
)

type Server struct {
	router        *chi.Mux
	usecases      *usecase.UseCases
	notifications *hub.Hub
}

type Options func(*Server)

func New(usecases *usecase.UseCases, notifications *hub.Hub, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:        r,
		usecases:      usecases,
		notifications: notifications,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/refunds", s.handleSubmitRefund)
		r.Get("/threads/{threadID}/status", s.handleThreadStatus)
		r.Post("/chat/{threadID}", s.handleChat)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/tasks", s.handleListTasks)
			r.Post("/decide/{caseID}", s.handleDecide)
		})
	})

	r.Get("/ws/chat", s.handleCustomerSocket)
	r.Get("/ws/admin", s.handleReviewerSocket)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
