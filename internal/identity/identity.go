// Package identity models the opaque identity-provider collaborator: HTTP
// transport, JWT validation, and user metadata caching all live outside
// this module's scope. The core only ever sees the result of resolving a
// credential: a user id and a premium flag, or nothing at all.
package identity

import "context"

// Identity is what the core cares about: who is asking and whether their
// tier unlocks the premium-only operations (analyze, convert_chapter,
// convert_all).
type Identity struct {
	UserID    string
	IsPremium bool
}

// Provider resolves an incoming credential to an Identity. Implementations
// live outside the core (HTTP header parsing, JWT verification, a user
// metadata cache); the core depends only on this interface.
type Provider interface {
	Resolve(ctx context.Context, credential string) (*Identity, error)
}

// Static is a fixed-identity Provider: every credential (including the
// empty one) resolves to the same Identity. It exists so the core can be
// wired and exercised without a real identity provider attached, the same
// way the spec treats auth as an external collaborator with a minimal
// contract.
type Static struct {
	Identity Identity
}

// Resolve always returns the configured Identity.
func (s Static) Resolve(ctx context.Context, credential string) (*Identity, error) {
	id := s.Identity
	return &id, nil
}

// Anonymous resolves every credential to a non-premium, unowned identity.
// Used when no identity provider is configured: requests proceed as
// free-tier and unauthenticated resources (UserID == "") skip ownership
// checks, per the Book Registry's "except when the record's owner is
// unset" rule.
var Anonymous Provider = Static{Identity: Identity{}}
