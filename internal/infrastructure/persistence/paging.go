package persistence

import (
	"slices"
	"strings"

	"github.com/erp/backoffice/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SortColumns whitelists the columns a list query may order by. The first
// entry is used when the requested column is not listed.
type SortColumns []string

func sortColumns(extra ...string) SortColumns {
	return append(SortColumns{"created_at", "updated_at", "id"}, extra...)
}

// Pick returns requested when it is whitelisted and the fallback otherwise.
// Matching is exact, so nothing outside the list ever reaches the SQL.
func (c SortColumns) Pick(requested string) string {
	requested = strings.TrimSpace(requested)
	if slices.Contains(c, requested) {
		return requested
	}
	return c[0]
}

// Paginate orders db by the filter's column and direction, with id as the
// tie-breaker, and applies the page window.
func Paginate(db *gorm.DB, f shared.Filter, columns SortColumns) *gorm.DB {
	f = f.Normalize()
	desc := !strings.EqualFold(strings.TrimSpace(f.OrderDir), "asc")
	column := columns.Pick(f.OrderBy)

	db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	if column != "id" {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc})
	}
	return db.Offset(f.Offset()).Limit(f.PageSize)
}

var (
	OrderSortColumns       = sortColumns("number", "contact_id", "status", "total_gross", "approved_at")
	ChequeSortColumns      = sortColumns("number", "amount", "status", "due_date", "issue_date")
	PaymentSortColumns     = sortColumns("number", "amount", "paid_at")
	ExpenseListSortColumns = sortColumns("number", "title", "status", "total_gross")
)
