package persistence

import (
	"context"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VersionColumn is the column holding the row's version token.
const VersionColumn = "version_token"

// UpdateWithVersion writes columns to the row of model identified by id only
// if its stored token still equals expected. The comparison is part of the
// UPDATE itself, so a write that landed after the row was loaded is detected.
//
// It returns the freshly issued token. Zero affected rows means the token was
// stale, or the row is gone or outside the caller's branch; all three are
// reported as a concurrency conflict and nothing is written.
func UpdateWithVersion(ctx context.Context, db *gorm.DB, model any, id uuid.UUID, expected shared.VersionToken, columns map[string]any) (shared.VersionToken, error) {
	if expected.IsZero() {
		return nil, shared.ErrConcurrencyConflict
	}

	next := shared.NewVersionToken()
	values := make(map[string]any, len(columns)+2)
	for k, v := range columns {
		values[k] = v
	}
	values[VersionColumn] = []byte(next)
	if _, ok := values["updated_at"]; !ok {
		values["updated_at"] = time.Now()
	}

	result := Conn(ctx, db).
		Model(model).
		Where("id = ? AND "+VersionColumn+" = ?", id, []byte(expected)).
		Updates(values)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected != 1 {
		return nil, shared.ErrConcurrencyConflict
	}
	return next, nil
}
