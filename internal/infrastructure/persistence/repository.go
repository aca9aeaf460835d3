package persistence

import (
	"context"
	"errors"

	"github.com/erp/backoffice/internal/domain/shared"
	"gorm.io/gorm"
)

// notFound maps gorm's missing-row error to the domain error for resource.
// A row hidden by the branch scope is indistinguishable from a missing one.
func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(resource)
	}
	return err
}

// writeInTx runs fn in the unit of work on ctx, opening one when the caller
// has none, so a header and its lines are always written together.
func writeInTx(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	return NewTxCoordinator(db).Run(ctx, true, fn)
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}
