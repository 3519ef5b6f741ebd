package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"civic-chat/internal/logging"
)

// New mounts the chat endpoint at /chats. OPTIONS and unsupported methods
// are left to chat so CORS and 405 bodies stay identical to the Lambda path.
func New(chat http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/chats", chat)

	return r
}

// requestLogger puts a request-scoped logger into the context.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.From(r.Context()).With(
			"request_id", chimiddleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
			"path", r.URL.Path,
		)
		next.ServeHTTP(w, r.WithContext(logging.With(r.Context(), logger)))
	})
}
