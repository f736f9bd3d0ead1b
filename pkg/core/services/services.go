package services

import (
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is not active")
	ErrForbidden          = errors.New("not permitted")
)

// now returns the current instant at the precision both backends store
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
