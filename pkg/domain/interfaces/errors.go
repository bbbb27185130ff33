package interfaces

import "errors"

// Sentinel errors shared by all repository backends, so callers can tell a
// missing record from a transient I/O failure without knowing the backend.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrRecordExists   = errors.New("record already exists")
)
