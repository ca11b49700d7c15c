package api

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tallyhq/tally/internal/logger"
)

// requestLogger logs one line per request and stores a request-scoped
// logger in the context.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			reqLog := log.With().Str("request_id", chimiddleware.GetReqID(r.Context())).Logger()
			r = r.WithContext(logger.WithContext(r.Context(), reqLog))

			defer func() {
				status := ww.Status()
				var ev *zerolog.Event
				switch {
				case status >= 500:
					ev = reqLog.Error()
				case status >= 400:
					ev = reqLog.Warn()
				default:
					ev = reqLog.Info()
				}
				ev.Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("http request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// rateLimit rejects requests beyond the limiter's budget. A nil limiter
// lets everything through.
func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "too many uploads, try again shortly")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
