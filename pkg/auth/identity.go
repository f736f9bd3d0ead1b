package auth

import (
	"context"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

// Identity is the authenticated caller of a request
type Identity struct {
	VolunteerID int64
	Email       string
	Role        string
}

// IsAdmin reports whether the caller has the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == db.RoleAdmin
}

type identityKey struct{}

// WithIdentity attaches the caller to ctx
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the caller attached to ctx, if any
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
