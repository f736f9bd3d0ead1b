package db

import (
	"errors"
	"fmt"
)

// Errors returned by every Database implementation. Backends wrap driver
// errors into these so callers can match them with errors.Is.
var (
	ErrNotFound           = errors.New("record not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAlreadyJoined      = errors.New("volunteer already joined this project")
	ErrProjectFull        = errors.New("project has reached maximum volunteers")
	ErrNotMember          = errors.New("volunteer is not a member of this project")
	ErrNoChanges          = errors.New("no fields to update")
	ErrBackendUnavailable = errors.New("database backend not configured")
)

// ErrVolunteerNotFound is returned when an operation names a volunteer that
// does not exist alongside another record. It matches ErrNotFound.
var ErrVolunteerNotFound = fmt.Errorf("volunteer %w", ErrNotFound)
