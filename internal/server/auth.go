package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"accentscope/internal/api"
)

const unauthorizedMessage = "missing or invalid access token"

// authMiddleware returns a middleware that validates bearer tokens.
// If the configured token is empty, all requests pass through. Otherwise,
// requests must include "Authorization: Bearer <token>". When allowQuery is
// set, a "token" query parameter is accepted as well, since browsers cannot
// set headers on WebSocket handshakes.
func (s *Server) authMiddleware(token string, allowQuery bool, next http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		presented := bearerToken(r)
		if presented == "" && allowQuery {
			presented = r.URL.Query().Get("token")
		}
		if !tokenMatches(token, presented) {
			s.writeJSON(w, http.StatusUnauthorized, unauthorizedResponse())
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func tokenMatches(token, presented string) bool {
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1
}

func unauthorizedResponse() api.ErrorResponse {
	return api.ErrorResponse{
		Error:    unauthorizedMessage,
		Category: "unauthorized",
		Hint:     "send the configured paths.api_token as a bearer token",
	}
}
