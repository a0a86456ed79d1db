package server

import (
	"context"
	"mime"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
)

// requestID reuses an inbound X-Request-Id or assigns a fresh UUID, and
// echoes it on the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoverer turns any panic escaping a handler into the generic 500 envelope.
// Transactions opened by the repository roll back while the panic unwinds.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			s.requestLogger(r).Error("unhandled panic",
				"method", r.Method,
				"path", r.URL.Path,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			// A handler that already started its response keeps it.
			if ww.Status() == 0 && r.Header.Get("Connection") != "Upgrade" {
				s.respondWithError(ww, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(ww, r)
	})
}

// rateLimiters enforces the hourly and daily per-IP ceilings.
func (s *Server) rateLimiters() []func(http.Handler) http.Handler {
	if !s.cfg.RateLimit.Enabled {
		return nil
	}

	onLimit := httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
		s.respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
	})
	return []func(http.Handler) http.Handler{
		httprate.Limit(s.cfg.RateLimit.RequestsPerHour, time.Hour, httprate.WithKeyFuncs(httprate.KeyByIP), onLimit),
		httprate.Limit(s.cfg.RateLimit.RequestsPerDay, 24*time.Hour, httprate.WithKeyFuncs(httprate.KeyByIP), onLimit),
	}
}

// writeGuards apply to routes that change state. With CSRF protection on,
// bodies must be sent as application/json, which a cross-site form post
// cannot do without a preflight.
func (s *Server) writeGuards() []func(http.Handler) http.Handler {
	if !s.cfg.CSRFEnabled {
		return nil
	}
	return []func(http.Handler) http.Handler{s.requireJSON}
}

func (s *Server) requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			s.respondWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(r *http.Request) *log.Logger {
	return s.logger.With("request_id", middleware.GetReqID(r.Context()))
}
