package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/models"
)

type callerKey struct{}

// AuthMiddleware verifies the HS256 bearer token and stores its subject as
// the caller identity. The ledger only authorizes; authentication ends here.
func AuthMiddleware(secret []byte, parse IdentityParser) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenString == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthenticated, "bearer token required")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, CodeUnauthenticated, "invalid token")
				return
			}

			subject, err := token.Claims.GetSubject()
			if err != nil {
				writeError(w, http.StatusUnauthorized, CodeUnauthenticated, "invalid token subject")
				return
			}
			caller, err := parse(subject)
			if err != nil {
				writeError(w, http.StatusUnauthorized, CodeUnauthenticated, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller models.Identity) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the authenticated caller, if any.
func CallerFromContext(ctx context.Context) (models.Identity, bool) {
	caller, ok := ctx.Value(callerKey{}).(models.Identity)
	return caller, ok && !caller.IsZero()
}
