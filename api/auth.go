package api

import (
	"net/http"
	"strconv"

	"github.com/devboardui/devboard/api/helpers"
)

// AuthenticationMiddleware resolves the caller identity. Token issuance
// and verification live outside this service: the boundary is an already-
// authenticated user id in the X-User-ID header, validated against the
// store.
func AuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.Atoi(r.Header.Get("X-User-ID"))
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		user, err := helpers.Store(r).GetUser(userID)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, helpers.SetContextValue(r, "user", &user))
	})
}
