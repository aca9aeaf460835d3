package trade

import (
	"time"

	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/google/uuid"
)

// LineResponse is a priced document line. Quantities and prices are rendered
// at four digits, rates at three and amounts at two.
type LineResponse struct {
	ID          uuid.UUID  `json:"id"`
	LineNo      int        `json:"line_no"`
	ItemID      *uuid.UUID `json:"item_id,omitempty"`
	Description string     `json:"description"`
	Quantity    string     `json:"quantity"`
	UnitPrice   string     `json:"unit_price"`
	VatRate     string     `json:"vat_rate"`
	Net         string     `json:"net"`
	Vat         string     `json:"vat"`
	Gross       string     `json:"gross"`
}

// TotalsResponse holds document totals
type TotalsResponse struct {
	Net   string `json:"net"`
	Vat   string `json:"vat"`
	Gross string `json:"gross"`
}

// OrderResponse is the projection of an order
type OrderResponse struct {
	ID           uuid.UUID      `json:"id"`
	BranchID     uuid.UUID      `json:"branch_id"`
	Type         string         `json:"type"`
	Number       string         `json:"number"`
	ContactID    uuid.UUID      `json:"contact_id"`
	Currency     string         `json:"currency"`
	Notes        string         `json:"notes,omitempty"`
	Status       string         `json:"status"`
	Lines        []LineResponse `json:"lines"`
	Totals       TotalsResponse `json:"totals"`
	ApprovedAt   *time.Time     `json:"approved_at,omitempty"`
	CancelledAt  *time.Time     `json:"cancelled_at,omitempty"`
	CancelReason string         `json:"cancel_reason,omitempty"`
	InvoicedAt   *time.Time     `json:"invoiced_at,omitempty"`
	InvoiceID    *uuid.UUID     `json:"invoice_id,omitempty"`
	DeletedAt    *time.Time     `json:"deleted_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	VersionToken string         `json:"version_token"`
}

// InvoiceResponse is the projection of an invoice
type InvoiceResponse struct {
	ID           uuid.UUID      `json:"id"`
	BranchID     uuid.UUID      `json:"branch_id"`
	Kind         string         `json:"kind"`
	Number       string         `json:"number"`
	ContactID    uuid.UUID      `json:"contact_id"`
	Currency     string         `json:"currency"`
	SourceType   string         `json:"source_type,omitempty"`
	SourceID     *uuid.UUID     `json:"source_id,omitempty"`
	IssuedAt     time.Time      `json:"issued_at"`
	Status       string         `json:"status"`
	Lines        []LineResponse `json:"lines"`
	Totals       TotalsResponse `json:"totals"`
	CancelledAt  *time.Time     `json:"cancelled_at,omitempty"`
	CancelReason string         `json:"cancel_reason,omitempty"`
	VersionToken string         `json:"version_token"`
}

// StockLineResponse compares one item's requirement with its availability
type StockLineResponse struct {
	ItemID     uuid.UUID `json:"item_id"`
	Required   string    `json:"required"`
	Available  string    `json:"available"`
	Sufficient bool      `json:"sufficient"`
}

// OrderStockResponse is the stock picture of an order at its branch
type OrderStockResponse struct {
	OrderID    uuid.UUID           `json:"order_id"`
	BranchID   uuid.UUID           `json:"branch_id"`
	Items      []StockLineResponse `json:"items"`
	Sufficient bool                `json:"sufficient"`
}

// OrderListResponse is one page of orders
type OrderListResponse struct {
	Items      []OrderResponse `json:"items"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// ToTotalsResponse renders document totals
func ToTotalsResponse(t valueobject.LineAmounts) TotalsResponse {
	return TotalsResponse{
		Net:   valueobject.Format(t.Net, valueobject.ScaleAmount),
		Vat:   valueobject.Format(t.Vat, valueobject.ScaleAmount),
		Gross: valueobject.Format(t.Gross, valueobject.ScaleAmount),
	}
}

func toLineResponses(lines []trade.Line) []LineResponse {
	out := make([]LineResponse, len(lines))
	for i, l := range lines {
		out[i] = LineResponse{
			ID:          l.ID,
			LineNo:      l.LineNo,
			ItemID:      l.ItemID,
			Description: l.Description,
			Quantity:    valueobject.Format(l.Quantity, valueobject.ScaleQuantity),
			UnitPrice:   valueobject.Format(l.UnitPrice, valueobject.ScaleQuantity),
			VatRate:     valueobject.Format(l.VatRate, valueobject.ScaleRate),
			Net:         valueobject.Format(l.Net, valueobject.ScaleAmount),
			Vat:         valueobject.Format(l.Vat, valueobject.ScaleAmount),
			Gross:       valueobject.Format(l.Gross, valueobject.ScaleAmount),
		}
	}
	return out
}

// ToOrderResponse projects an order
func ToOrderResponse(o *trade.Order) *OrderResponse {
	return &OrderResponse{
		ID:           o.ID,
		BranchID:     o.BranchID,
		Type:         string(o.Type),
		Number:       o.Number,
		ContactID:    o.ContactID,
		Currency:     string(o.Currency),
		Notes:        o.Notes,
		Status:       o.Status.String(),
		Lines:        toLineResponses(o.Lines),
		Totals:       ToTotalsResponse(o.Totals),
		ApprovedAt:   o.ApprovedAt,
		CancelledAt:  o.CancelledAt,
		CancelReason: o.CancelReason,
		InvoicedAt:   o.InvoicedAt,
		InvoiceID:    o.InvoiceID,
		DeletedAt:    o.DeletedAt,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		VersionToken: o.VersionToken.Encode(),
	}
}

// ToInvoiceResponse projects an invoice
func ToInvoiceResponse(i *trade.Invoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:           i.ID,
		BranchID:     i.BranchID,
		Kind:         string(i.Kind),
		Number:       i.Number,
		ContactID:    i.ContactID,
		Currency:     string(i.Currency),
		SourceType:   string(i.SourceType),
		SourceID:     i.SourceID,
		IssuedAt:     i.IssuedAt,
		Status:       i.Status.String(),
		Lines:        toLineResponses(i.Lines),
		Totals:       ToTotalsResponse(i.Totals),
		CancelledAt:  i.CancelledAt,
		CancelReason: i.CancelReason,
		VersionToken: i.VersionToken.Encode(),
	}
}

func toDomainLines(in []LineInput) []trade.LineInput {
	out := make([]trade.LineInput, len(in))
	for i, l := range in {
		out[i] = trade.LineInput{
			ItemID:      l.ItemID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			VatRate:     l.VatRate,
		}
	}
	return out
}

func fromDomainLines(in []trade.LineInput) []LineInput {
	out := make([]LineInput, len(in))
	for i, l := range in {
		out[i] = LineInput{
			ItemID:      l.ItemID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			VatRate:     l.VatRate,
		}
	}
	return out
}
