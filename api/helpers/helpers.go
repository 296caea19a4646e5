package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/devboardui/devboard/db"
	projectService "github.com/devboardui/devboard/services/project"
	"github.com/devboardui/devboard/services/realtime"
	log "github.com/sirupsen/logrus"
)

type contextKey string

// SetContextValue stores a value in the request context.
func SetContextValue(r *http.Request, key string, value any) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), contextKey(key), value))
}

// GetFromContext fetches a value stored by SetContextValue.
func GetFromContext(r *http.Request, key string) any {
	return r.Context().Value(contextKey(key))
}

// Store returns the durable store attached by StoreMiddleware.
func Store(r *http.Request) db.Store {
	return GetFromContext(r, "store").(db.Store)
}

// UserFromContext returns the authenticated user attached by
// AuthenticationMiddleware.
func UserFromContext(r *http.Request) *db.User {
	return GetFromContext(r, "user").(*db.User)
}

// StoreMiddleware attaches the store to every request.
func StoreMiddleware(store db.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, SetContextValue(r, "store", store))
		})
	}
}

// WriteJSON writes the response as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, code int, out any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(out); err != nil {
		log.WithError(err).Error("cannot write response")
	}
}

// WriteErrorStatus writes a user-facing error message with the given
// status code.
func WriteErrorStatus(w http.ResponseWriter, message string, code int) {
	WriteJSON(w, code, map[string]string{"error": message})
}

// WriteError maps domain errors to HTTP status codes. Unrecognized errors
// are treated as a store/internal failure: retryable, logged, opaque.
func WriteError(w http.ResponseWriter, err error) {
	var validation *db.ValidationError

	switch {
	case errors.Is(err, db.ErrNotFound):
		WriteErrorStatus(w, "not found", http.StatusNotFound)
	case errors.As(err, &validation):
		WriteErrorStatus(w, validation.Message, http.StatusBadRequest)
	case errors.Is(err, projectService.ErrNotAMember):
		WriteErrorStatus(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, projectService.ErrAlreadyMember),
		errors.Is(err, projectService.ErrDuplicatePending),
		errors.Is(err, projectService.ErrAlreadyResolved),
		errors.Is(err, realtime.ErrAlreadyJoinedElsewhere):
		WriteErrorStatus(w, err.Error(), http.StatusConflict)
	case errors.Is(err, realtime.ErrNotJoined):
		WriteErrorStatus(w, err.Error(), http.StatusBadRequest)
	default:
		log.WithError(err).Error("internal error")
		WriteErrorStatus(w, "store unavailable, try again", http.StatusServiceUnavailable)
	}
}

// Bind decodes the JSON request body into out; on failure it writes a bad
// request response and returns false.
func Bind(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		WriteErrorStatus(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
