package logging

import (
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger attaches a request-scoped logger to the context and writes one
// access-log event per request. It expects chiMiddleware.RequestID to run first;
// when no ID is present a fresh UUID is used.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := chiMiddleware.GetReqID(r.Context())
		if reqID == "" {
			reqID = NewRequestID()
		}
		base := Logger()
		l := base.With().Str("request_id", reqID).Logger()
		ctx := ContextWithLogger(r.Context(), l)

		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		ev := l.Info()
		if ww.Status() >= http.StatusInternalServerError {
			ev = l.Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}
