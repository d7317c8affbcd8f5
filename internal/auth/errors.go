package auth

import "errors"

// ErrUnavailable marks an I/O-level fault talking to a collaborator
// (network, database, cache). Callers classify it with errors.Is.
var ErrUnavailable = errors.New("collaborator unavailable")
