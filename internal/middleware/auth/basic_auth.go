package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
)

// BasicAuth guards the admin routes. An empty username rejects every request.
func BasicAuth(realm, username, password string) func(http.Handler) http.Handler {
	challenge := fmt.Sprintf("Basic realm=%q", realm)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || username == "" {
				requireAuth(w, challenge)
				return
			}

			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
			if !userOK || !passOK {
				requireAuth(w, challenge)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requireAuth(w http.ResponseWriter, challenge string) {
	w.Header().Set("WWW-Authenticate", challenge)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
