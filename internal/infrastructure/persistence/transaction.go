package persistence

import (
	"context"
	"fmt"

	"github.com/erp/backoffice/internal/domain/shared"
	"gorm.io/gorm"
)

type txKey struct{}

// Conn returns the connection a repository must use for ctx: the open
// transaction when the call chain has one, otherwise db bound to ctx.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// InTransaction reports whether ctx carries an open transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}

// TxCoordinator implements shared.UnitOfWork on top of gorm.
//
// The open transaction travels on the context of one request, so nested
// handlers join it and concurrent requests never see each other's.
type TxCoordinator struct {
	db *gorm.DB
}

// NewTxCoordinator creates a coordinator for db
func NewTxCoordinator(db *gorm.DB) *TxCoordinator {
	return &TxCoordinator{db: db}
}

// Run executes fn as one unit of work.
//
// Only the outermost transactional call begins, commits and rolls back.
// Any error or panic from fn rolls back. A context cancelled before commit
// rolls back; once commit starts it is not interrupted.
func (c *TxCoordinator) Run(ctx context.Context, transactional bool, fn func(ctx context.Context) error) (err error) {
	if !transactional || InTransaction(ctx) {
		return fn(ctx)
	}

	// The transaction is bound to a context that cannot be cancelled so the
	// driver never aborts a commit halfway. Cancellation is checked explicitly.
	tx := c.db.WithContext(context.WithoutCancel(ctx)).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin transaction: %w", tx.Error)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
		if rbErr := tx.Rollback().Error; rbErr != nil && err == nil {
			err = fmt.Errorf("rollback transaction: %w", rbErr)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = tx.Commit().Error; err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

var _ shared.UnitOfWork = (*TxCoordinator)(nil)
