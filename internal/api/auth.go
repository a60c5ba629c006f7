package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// BearerAuth guards the chat and record endpoints with the locally
// generated API token. The health endpoint stays outside so the CLI can
// probe a running server without credentials.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tokenMatches(r.Header.Get("Authorization"), token) {
				httpError(w, http.StatusUnauthorized, "authentication_error", "missing or invalid API token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// tokenMatches compares in constant time so the token cannot be probed
// byte by byte.
func tokenMatches(header, token string) bool {
	if !strings.HasPrefix(header, bearerPrefix) {
		return false
	}
	presented := header[len(bearerPrefix):]
	return subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1
}
