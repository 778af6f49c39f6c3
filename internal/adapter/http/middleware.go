package adapthttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"perritofeliz/internal/app"
	"perritofeliz/internal/domain"
)

type contextKey string

const sessionContextKey contextKey = "session"

func sessionFromContext(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(sessionContextKey).(*domain.Session)
	return sess
}

// backendContext carries the backend token of the session to outgoing calls.
func backendContext(r *http.Request) context.Context {
	ctx := r.Context()
	if sess := sessionFromContext(ctx); sess != nil && sess.BackendToken != "" {
		ctx = domain.WithBackendToken(ctx, sess.BackendToken)
	}
	return ctx
}

// requireSession lets the request through only with a present, unexpired
// session. Anything else is sent to the login view.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(sessionCookie); err == nil {
			id = c.Value
		}

		sess, err := s.auth.ValidateSession(r.Context(), id)
		if err != nil {
			if !errors.Is(err, app.ErrSessionNotFound) && !errors.Is(err, app.ErrSessionExpired) {
				s.log.Error("session lookup failed", zap.Error(err))
			}
			if id != "" {
				s.clearSessionCookie(w)
			}
			w.Header().Set("Cache-Control", "no-store")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
