package handlers

import (
	"errors"
	"net/http"
	"strings"
)

var (
	errMissingToken = errors.New("token not provided")
	errBadToken     = errors.New("invalid token")
)

// TokenParser resolves a session token to a user id.
type TokenParser interface {
	Parse(token string) (int, error)
}

// RequireAuth enforces a bearer session token and injects the user id into
// the request context.
func RequireAuth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			userID, err := parser.Parse(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, errBadToken.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errMissingToken
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errBadToken
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errBadToken
	}
	return token, nil
}
