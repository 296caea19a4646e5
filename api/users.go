package api

import (
	"net/http"

	"github.com/devboardui/devboard/api/helpers"
	"github.com/devboardui/devboard/db"
)

// GetUsers returns all registered users, for the invite picker.
func GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := helpers.Store(r).GetUsers(db.RetrieveQueryParams{})
	if err != nil {
		helpers.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

// CreateUser registers a user. User management proper belongs to the
// identity service; this endpoint exists for bootstrap and testing.
func CreateUser(w http.ResponseWriter, r *http.Request) {
	var user db.User
	if !helpers.Bind(w, r, &user) {
		return
	}

	newUser, err := helpers.Store(r).CreateUser(user)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, newUser)
}
