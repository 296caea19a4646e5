package realtime

import "errors"

// ErrAlreadyJoinedElsewhere is returned when a connection tries to join a
// project while still joined to a different one. A connection belongs to
// at most one project at a time.
var ErrAlreadyJoinedElsewhere = errors.New("connection already joined to another project")

// ErrNotJoined is returned by operations that require the connection to be
// joined to a project.
var ErrNotJoined = errors.New("connection not joined to a project")
