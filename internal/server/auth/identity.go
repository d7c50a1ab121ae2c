// Package auth issues and verifies bearer tokens, hashes passwords and
// carries the authenticated caller through a request context.
package auth

import "context"

const RoleAdmin = "ADMIN"

// Identity is the authenticated caller as decoded from a bearer token.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// CanAccess reports whether the caller may read a resource owned by ownerID.
func (i Identity) CanAccess(ownerID int64) bool {
	return i.IsAdmin() || i.ID == ownerID
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
