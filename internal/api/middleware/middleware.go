package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyejinbaek/cognition-ai-proj/internal/api/presenter"
	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

// quietPaths are not logged unless they fail.
var quietPaths = map[string]bool{"/healthz": true}

// LoggingMiddleware attaches a request logger to the context and logs every response,
// 5xx at error and 4xx at warn level.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		l := log.With().
			Str("correlation_id", core.CorrelationID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(l.WithContext(r.Context())))

		level := zerolog.InfoLevel
		switch {
		case rec.status >= 500:
			level = zerolog.ErrorLevel
		case rec.status >= 400:
			level = zerolog.WarnLevel
		case quietPaths[r.URL.Path]:
			return
		}
		l.WithLevel(level).
			Int("status", rec.status).
			Int("bytes", rec.written).
			Str("remote", r.RemoteAddr).
			Dur("duration", time.Since(start)).
			Msg("request.handled")
	})
}

// RecoverMiddleware turns a handler panic into a 500 response.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			log.Ctx(r.Context()).Error().
				Str("panic", fmt.Sprint(v)).
				Bytes("stack", debug.Stack()).
				Msg("panic.recovered")
			presenter.Error(w, r, "internal server error", http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func (w *responseRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}
