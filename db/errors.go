package db

import "errors"

var ErrNotFound = errors.New("no rows in result set")

// ErrInviteResolved is returned by ResolveProjectInvite when the invite
// already left the pending state. Exactly one concurrent resolver wins;
// the rest observe this error.
var ErrInviteResolved = errors.New("invite already resolved")

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
