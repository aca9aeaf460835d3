package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput is the caller-supplied part of an order or invoice line.
type LineInput struct {
	ItemID      *uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	VatRate     decimal.Decimal
}

// Line is a priced document line. Lines are owned by their document and are
// rewritten with it on every save.
type Line struct {
	ID          uuid.UUID
	LineNo      int
	ItemID      *uuid.UUID
	Description string
	valueobject.PricedLine
}

func newLine(lineNo int, in LineInput) (Line, error) {
	priced, err := valueobject.NewPricedLine(in.Quantity, in.UnitPrice, in.VatRate)
	if err != nil {
		return Line{}, err
	}
	if in.ItemID != nil && *in.ItemID == uuid.Nil {
		in.ItemID = nil
	}
	return Line{
		ID:          uuid.New(),
		LineNo:      lineNo,
		ItemID:      in.ItemID,
		Description: strings.TrimSpace(in.Description),
		PricedLine:  priced,
	}, nil
}

func totalsOf(lines []Line) valueobject.LineAmounts {
	priced := make([]valueobject.PricedLine, len(lines))
	for i, l := range lines {
		priced[i] = l.PricedLine
	}
	return valueobject.TotalsOf(priced)
}

// NewDocumentNumber returns a human-readable document number such as
// SO-20260102-3F2A9C1B.
func NewDocumentNumber(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), suffix)
}
