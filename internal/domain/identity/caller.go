// Package identity describes who is issuing a command. Authentication itself
// happens outside this service; by the time a request reaches the command
// pipeline the caller has been resolved and placed on the context.
package identity

import (
	"context"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// Caller is the identity a command runs as.
type Caller struct {
	UserID         uuid.UUID
	BranchID       *uuid.UUID
	IsHeadquarters bool
	IsAdmin        bool
}

// HasBranch reports whether the caller is assigned to a branch.
func (c Caller) HasBranch() bool {
	return c.BranchID != nil && *c.BranchID != uuid.Nil
}

// SeesAllBranches reports whether the caller bypasses branch scoping.
func (c Caller) SeesAllBranches() bool {
	return c.IsAdmin || c.IsHeadquarters
}

// OwningBranch decides which branch a new document belongs to.
// Branch users always create in their own branch; headquarters and admins may
// target any branch but must name one when they have none themselves.
func (c Caller) OwningBranch(requested *uuid.UUID) (uuid.UUID, error) {
	if requested != nil && *requested == uuid.Nil {
		requested = nil
	}
	if c.SeesAllBranches() {
		if requested != nil {
			return *requested, nil
		}
		if c.HasBranch() {
			return *c.BranchID, nil
		}
		return uuid.Nil, shared.NewValidationError("BRANCH_REQUIRED", "branch_id is required")
	}
	if !c.HasBranch() {
		return uuid.Nil, shared.NewAccessDeniedError("caller is not assigned to a branch")
	}
	if requested != nil && *requested != *c.BranchID {
		return uuid.Nil, shared.NewAccessDeniedError("cannot create documents for another branch")
	}
	return *c.BranchID, nil
}

type callerKey struct{}

// WithCaller returns a context carrying c.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller on ctx and whether one was set.
func CallerFrom(ctx context.Context) (Caller, bool) {
	if ctx == nil {
		return Caller{}, false
	}
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// FromContext returns the caller on ctx, or the zero Caller which sees nothing.
func FromContext(ctx context.Context) Caller {
	c, _ := CallerFrom(ctx)
	return c
}
