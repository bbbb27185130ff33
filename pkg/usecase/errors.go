package usecase

import "errors"

// Sentinel errors for the use case layer
var (
	// ErrIssueNotFound is returned when an action targets a thread with no
	// issue record
	ErrIssueNotFound = errors.New("issue record not found")

	// ErrNotStaff is returned when a staff-gated command comes from a
	// non-staff user; the mutation is rejected before any state change
	ErrNotStaff = errors.New("staff privileges required")

	// ErrInvalidThreadRef is returned when a command argument cannot be
	// parsed as a thread reference
	ErrInvalidThreadRef = errors.New("invalid thread reference")

	// ErrUnknownCommand is returned for an unrecognized staff command verb
	ErrUnknownCommand = errors.New("unknown command")
)

// Context keys for error values
const (
	ThreadIDKey = "thread_id"
	UserIDKey   = "user_id"
)
