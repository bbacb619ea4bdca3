// Package auth authenticates users and answers the single authorization
// question the rest of the service asks: may this caller do this?
package auth

import (
	"context"
	"fmt"

	"github.com/ecosopis/storefront/internal/domain"
)

// Caller is the authenticated identity attached to a request.
type Caller struct {
	UserID int64       `json:"userId"`
	Role   domain.Role `json:"role"`
}

type callerKey struct{}

func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext returns nil for anonymous requests.
func CallerFromContext(ctx context.Context) *Caller {
	c, _ := ctx.Value(callerKey{}).(*Caller)
	return c
}

// Authorize checks caller against the role an operation requires.
//
// An anonymous caller is Unauthorized for customer operations but Forbidden
// for admin ones, so admin endpoints never hint that logging in would help.
func Authorize(caller *Caller, required domain.Role) error {
	if caller == nil || caller.UserID <= 0 {
		if required == domain.RoleAdmin {
			return fmt.Errorf("admin access required: %w", domain.ErrForbidden)
		}
		return fmt.Errorf("authentication required: %w", domain.ErrUnauthorized)
	}
	if required == domain.RoleAdmin && caller.Role != domain.RoleAdmin {
		return fmt.Errorf("admin access required: %w", domain.ErrForbidden)
	}
	return nil
}
