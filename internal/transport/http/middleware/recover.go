package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/api"
)

// Recoverer turns a handler panic into a 500 envelope and logs the stack.
func Recoverer(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", GetRequestID(r.Context())).
					Str("path", r.URL.Path).
					Msg("handler panic")
				api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", GetRequestID(r.Context()))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
