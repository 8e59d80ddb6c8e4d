package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/auth"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/requestctx"
)

// Auth attaches the actor of a valid bearer token to the request context.
// Requests without a usable token continue anonymously; RequireAuth turns
// them away where identity matters.
func Auth(secret string, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				log.Debug().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("bearer token rejected")
				next.ServeHTTP(w, r)
				return
			}

			ctx := requestctx.WithActor(r.Context(), auth.Actor{
				EmployeeID: claims.EmployeeID,
				Role:       claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetActor(r *http.Request) (auth.Actor, bool) {
	return requestctx.GetActor(r.Context())
}
