package theatre

import (
	"context"
	"fmt"
	"slices"
)

// Capability is an authorization grant required by a mutating operation.
type Capability string

const (
	// CapEditPosts allows authoring productions, pages, venues, bylines,
	// media and menus, and converting pages.
	CapEditPosts Capability = "edit_posts"
	// CapManageOptions allows changing site settings and destructive
	// maintenance. It implies every other capability.
	CapManageOptions Capability = "manage_options"
)

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID       string       `json:"user_id"`
	Capabilities []Capability `json:"capabilities"`
}

// Can reports whether the principal holds capability c.
func (p Principal) Can(c Capability) bool {
	return slices.Contains(p.Capabilities, c) || slices.Contains(p.Capabilities, CapManageOptions)
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored in ctx, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Authorize returns an error wrapping ErrForbidden unless the principal in
// ctx holds capability c.
func Authorize(ctx context.Context, c Capability) error {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return fmt.Errorf("%w: no authenticated principal", ErrForbidden)
	}
	if !p.Can(c) {
		return fmt.Errorf("%w: %s lacks %s", ErrForbidden, p.UserID, c)
	}
	return nil
}
