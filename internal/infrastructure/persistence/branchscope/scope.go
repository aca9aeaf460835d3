// Package branchscope restricts every read and write of branch-owned rows to
// the branches the caller may see.
//
// The decision is made once, in Resolve, and evaluated in order:
//
//  1. admin             -> all branches
//  2. headquarters      -> all branches
//  3. assigned a branch -> only that branch
//  4. anything else     -> nothing
//
// Expression turns the decision into the single WHERE predicate the gorm
// plugin adds to every statement on a model with a branch_id column.
package branchscope

import (
	"context"

	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// Column is the column that marks a table as branch-owned.
const Column = "branch_id"

// Decision is the outcome of resolving a caller's visibility.
type Decision int

const (
	DecisionNone Decision = iota
	DecisionAll
	DecisionBranch
)

func (d Decision) String() string {
	switch d {
	case DecisionAll:
		return "all"
	case DecisionBranch:
		return "branch"
	default:
		return "none"
	}
}

// Resolve applies the decision table to caller. The returned id is only
// meaningful for DecisionBranch.
func Resolve(caller identity.Caller) (Decision, uuid.UUID) {
	switch {
	case caller.IsAdmin:
		return DecisionAll, uuid.Nil
	case caller.IsHeadquarters:
		return DecisionAll, uuid.Nil
	case caller.HasBranch():
		return DecisionBranch, *caller.BranchID
	default:
		return DecisionNone, uuid.Nil
	}
}

// Expression returns the WHERE predicate for caller, or nil when no filter applies.
func Expression(caller identity.Caller) clause.Expression {
	decision, branchID := Resolve(caller)
	switch decision {
	case DecisionAll:
		return nil
	case DecisionBranch:
		return clause.Eq{
			Column: clause.Column{Table: clause.CurrentTable, Name: Column},
			Value:  branchID,
		}
	default:
		return clause.Expr{SQL: "1 = 0"}
	}
}

type skipKey struct{}

// WithoutScope marks ctx as a system context (migrations, outbox relay) that
// is not acting for any caller and must not be filtered.
func WithoutScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipKey{}, true)
}

// Skipped reports whether ctx was marked by WithoutScope.
func Skipped(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(skipKey{}).(bool)
	return v
}
