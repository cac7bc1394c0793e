package daemon

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const tokenQueryParam = "token"

// authMiddleware requires "Authorization: Bearer <token>" when token is set.
// Routes that browsers open directly (video playback, downloads) pass
// queryToken so a ?token= parameter is accepted as well.
func authMiddleware(token string, queryToken bool, next http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return next
	}
	expected := []byte(token)
	return func(w http.ResponseWriter, r *http.Request) {
		if !tokenMatches(requestToken(r, queryToken), expected) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", `Bearer realm="streamkeeper"`)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
			return
		}
		next(w, r)
	}
}

func requestToken(r *http.Request, queryToken bool) string {
	if provided, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(provided)
	}
	if queryToken {
		return r.URL.Query().Get(tokenQueryParam)
	}
	return ""
}

func tokenMatches(provided string, expected []byte) bool {
	return provided != "" && subtle.ConstantTimeCompare([]byte(provided), expected) == 1
}
