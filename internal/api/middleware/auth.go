// Bearer JWT middleware for the protected API surface.
package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zerofn/zof/internal/api/ctxkeys"
	pkgauth "github.com/zerofn/zof/pkg/auth"
)

// AuthMiddleware guards a route group with "Authorization: Bearer <token>".
// A verified token puts ctxkeys.UserID and ctxkeys.Email on the request
// context for the handlers; anything else ends the request with a JSON 401.
// The register and login endpoints stay outside this middleware.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			unauthorized(w, "authorization required")
			return
		}

		claims, err := pkgauth.ParseJWT(token)
		if err != nil {
			// An expired token from a real session reads differently than
			// a forged or mangled one; clients re-login on this message.
			if errors.Is(err, jwt.ErrTokenExpired) {
				unauthorized(w, "token expired")
			} else {
				unauthorized(w, "invalid token")
			}
			return
		}

		ctx := ctxkeys.WithValue(r.Context(), ctxkeys.UserID, claims.UserID)
		ctx = ctxkeys.WithValue(ctx, ctxkeys.Email, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken pulls the token out of the Authorization header. The scheme
// match is case-sensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	rest, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		return "", false
	}
	token := strings.TrimSpace(rest)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
