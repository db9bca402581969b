package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"rentsnap/internal/backend"
	"rentsnap/internal/config"
	"rentsnap/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// AuthMiddleware resolves "Authorization: Token <jwt>" to a user and enforces
// the route's security level. It runs after routing so that the matched path
// template is known.
type AuthMiddleware struct {
	b      *backend.Backend
	prefix string
}

func NewAuthMiddleware(b *backend.Backend, prefix string) *AuthMiddleware {
	return &AuthMiddleware{b: b, prefix: prefix}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.SecurityAccess
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				level = config.RouteSecurity(r.Method, strings.TrimPrefix(tpl, m.prefix))
			}
		}

		token := extractToken(r)
		if token == "" {
			if level == config.SecurityPublic {
				next.ServeHTTP(w, r)
				return
			}
			writeDetail(w, r, http.StatusUnauthorized, "Authentication credentials were not provided.", "")
			return
		}

		user, err := m.b.Authenticate(r.Context(), token)
		if err != nil {
			if level == config.SecurityPublic {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func extractToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	for _, scheme := range []string{"Token ", "Bearer "} {
		if len(h) > len(scheme) && strings.EqualFold(h[:len(scheme)], scheme) {
			return strings.TrimSpace(h[len(scheme):])
		}
	}
	return ""
}

// requestID tags the request context with the caller's X-Request-ID or a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.InfoContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.ErrorContext(r.Context(), "Panic while serving request", "path", r.URL.Path, "panic", err)
				w.Header().Set("Connection", "close")
				writeDetail(w, r, http.StatusInternalServerError, "internal server error", "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
