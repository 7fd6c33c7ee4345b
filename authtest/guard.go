package authtest

import (
	"context"
	"net/http"
	"strings"
)

type userIDContextKey struct{}

func userIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey{}).(string)
	return id, ok && id != ""
}

// guard rejects requests without a valid, unrevoked bearer token with 401.
func (s *Service) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeJSON(w, http.StatusUnauthorized, envelope{Message: "Not authorized, no token"})
			return
		}

		claims, err := s.tokens.Parse(token)
		if err != nil || s.revoked(claims.ID) {
			writeJSON(w, http.StatusUnauthorized, envelope{Message: "Not authorized, token failed"})
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey{}, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
