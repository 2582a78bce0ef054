package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/pressline/dryclean-api/internal/access"
	"github.com/pressline/dryclean-api/internal/apperr"
	"github.com/pressline/dryclean-api/internal/auth"
)

type ctxKey int

const actorKey ctxKey = iota

// RequireAuth validates the bearer token and resolves the caller into an
// Actor, which downstream handlers read with ActorFrom.
func RequireAuth(tokens *auth.Manager, resolver access.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, apperr.New(apperr.KindUnauthorized, "missing bearer token"))
				return
			}
			userID, err := tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeError(w, apperr.New(apperr.KindUnauthorized, "invalid or expired token"))
				return
			}
			actor, err := resolver.Resolve(r.Context(), userID)
			if err != nil {
				if apperr.Is(err, apperr.KindNotFound) {
					writeError(w, apperr.New(apperr.KindUnauthorized, "unknown user"))
					return
				}
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}

func ActorFrom(r *http.Request) access.Actor {
	actor, _ := r.Context().Value(actorKey).(access.Actor)
	return actor
}
