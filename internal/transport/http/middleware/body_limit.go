package middleware

import (
	"net/http"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/api"
)

// BodyLimit caps request bodies of writes at maxBytes. A declared
// Content-Length over the cap is refused before the handler runs; an
// undeclared or understated one fails when DecodeJSON hits the cap.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes <= 0 || r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", GetRequestID(r.Context()))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
