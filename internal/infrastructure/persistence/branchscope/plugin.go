package branchscope

import (
	"github.com/erp/backoffice/internal/domain/identity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Plugin adds the caller's branch predicate to every query, row, update and
// delete statement whose model has a branch_id column. The caller is read
// from the statement context; a statement without one sees nothing.
//
// Raw SQL and statements without a model are not covered and must use Scope.
type Plugin struct{}

// NewPlugin creates the branch scope plugin
func NewPlugin() *Plugin {
	return &Plugin{}
}

// Name implements gorm.Plugin
func (p *Plugin) Name() string {
	return "branchscope"
}

// Initialize implements gorm.Plugin
func (p *Plugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("branchscope:query", apply); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("branchscope:row", apply); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("branchscope:update", apply); err != nil {
		return err
	}
	return db.Callback().Delete().Before("gorm:delete").Register("branchscope:delete", apply)
}

func apply(db *gorm.DB) {
	if db == nil || db.Statement == nil || db.Statement.Schema == nil {
		return
	}
	if _, ok := db.Statement.Schema.FieldsByDBName[Column]; !ok {
		return
	}
	ctx := db.Statement.Context
	if Skipped(ctx) {
		return
	}

	expr := Expression(identity.FromContext(ctx))
	if expr == nil {
		return
	}
	// Always added, even when the statement already filters on branch_id:
	// an explicit filter for another branch must still come back empty.
	db.Statement.AddClause(clause.Where{Exprs: []clause.Expression{expr}})
}
