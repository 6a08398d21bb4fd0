package middleware

import (
	"context"
	"net/http"
	"strings"

	"leaveledger/internal/domain/auth"
	"leaveledger/internal/domain/ledger"
)

type ctxKey string

const ctxKeyActor ctxKey = "actor"

// Auth parses a bearer token when present and attaches the actor to the
// request context. Requests without a valid token pass through anonymous;
// RequirePermission decides whether that matters.
func Auth(secret string) func(http.Handler) http.Handler {
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
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyActor, ledger.Actor{
				ID:       claims.ActorID,
				Role:     claims.Role,
				ScopeID:  claims.ScopeID,
				MemberID: claims.MemberID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetActor(ctx context.Context) (ledger.Actor, bool) {
	actor, ok := ctx.Value(ctxKeyActor).(ledger.Actor)
	return actor, ok
}
