package auth

import (
	"context"
	"fmt"
)

// Authorizer determines if an identity is allowed to perform an action.
type Authorizer interface {
	// Authorize returns nil if permitted, or an error matching ErrForbidden.
	Authorize(ctx context.Context, req *AuthzRequest) error
}

// AuthzRequest contains the information needed for authorization.
type AuthzRequest struct {
	Subject *Identity
	Action  string // e.g. "warm"
}

// AuthzError represents an authorization failure.
type AuthzError struct {
	Subject string
	Action  string
	Reason  string
}

// Error returns the error message.
func (e *AuthzError) Error() string {
	return fmt.Sprintf("authorization denied: subject=%q action=%q reason=%q",
		e.Subject, e.Action, e.Reason)
}

// Is reports whether this error matches the target.
func (e *AuthzError) Is(target error) bool {
	return target == ErrForbidden
}

// RoleAuthorizer admits identities holding Role.
type RoleAuthorizer struct {
	Role string
}

// Authorize checks the subject's roles.
func (a RoleAuthorizer) Authorize(_ context.Context, req *AuthzRequest) error {
	if req.Subject == nil {
		return &AuthzError{Action: req.Action, Reason: "no identity"}
	}
	if !req.Subject.HasRole(a.Role) {
		return &AuthzError{
			Subject: req.Subject.Principal,
			Action:  req.Action,
			Reason:  fmt.Sprintf("missing role %q", a.Role),
		}
	}
	return nil
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, req *AuthzRequest) error

// Authorize calls the function.
func (f AuthorizerFunc) Authorize(ctx context.Context, req *AuthzRequest) error {
	return f(ctx, req)
}
