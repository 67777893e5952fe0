// Package auth holds user accounts, bearer tokens and the request-scoped
// caller identity.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// Role is the caller capability. There are exactly two.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var (
	// ErrUnauthorized is returned when no identity is attached to a request.
	ErrUnauthorized = errors.New("Missing token")
	// ErrForbidden is returned when the caller lacks the admin capability.
	ErrForbidden = errors.New("Forbidden")
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the caller holds the admin capability.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// CanAccess reports whether the caller may read a resource owned by ownerID.
func (i Identity) CanAccess(ownerID string) bool {
	return i.IsAdmin() || i.UserID == ownerID
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity attached to ctx.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
