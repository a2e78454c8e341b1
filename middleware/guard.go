package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/credcore"
)

// RequireBearer rejects requests without a valid bearer token and stores the decoded
// claims in the request context (see credcore.TokenDataFromContext).
//
// Credential failures of every kind answer a bare 401 so the client cannot learn
// which check failed. Configuration failures answer 500.
func RequireBearer(issuer credcore.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if issuer == nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}

			data, err := issuer.FetchData(token)
			if err != nil {
				if errors.Is(err, credcore.ErrConfiguration) {
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(credcore.WithTokenData(r.Context(), data)))
		})
	}
}

// RequireScope wraps RequireBearer and additionally answers 403 when the token lacks
// scope.
func RequireScope(issuer credcore.TokenIssuer, scope string) func(http.Handler) http.Handler {
	bearer := RequireBearer(issuer)
	return func(next http.Handler) http.Handler {
		return bearer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, _ := credcore.TokenDataFromContext(r.Context())
			if !data.HasScope(scope) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer`)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func bearerToken(value string) (string, bool) {
	const bearer = "bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
