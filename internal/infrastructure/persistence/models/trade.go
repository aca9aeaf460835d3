package models

import (
	"time"

	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricedColumns holds the monetary columns shared by every document line.
type PricedColumns struct {
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	VatRate     decimal.Decimal `gorm:"type:decimal(7,3);not null"`
	NetAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	VatAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	GrossAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

func pricedColumnsFrom(l valueobject.PricedLine) PricedColumns {
	return PricedColumns{
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		VatRate:     l.VatRate,
		NetAmount:   l.Net,
		VatAmount:   l.Vat,
		GrossAmount: l.Gross,
	}
}

func (c PricedColumns) toDomain() valueobject.PricedLine {
	return valueobject.PricedLine{
		Quantity:  c.Quantity,
		UnitPrice: c.UnitPrice,
		VatRate:   c.VatRate,
		LineAmounts: valueobject.LineAmounts{
			Net:   c.NetAmount,
			Vat:   c.VatAmount,
			Gross: c.GrossAmount,
		},
	}
}

// TotalColumns holds a document's stored totals.
type TotalColumns struct {
	TotalNet   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalVat   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalGross decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

func totalColumnsFrom(t valueobject.LineAmounts) TotalColumns {
	return TotalColumns{TotalNet: t.Net, TotalVat: t.Vat, TotalGross: t.Gross}
}

func (c TotalColumns) toDomain() valueobject.LineAmounts {
	return valueobject.LineAmounts{Net: c.TotalNet, Vat: c.TotalVat, Gross: c.TotalGross}
}

// Columns returns the totals as an update map
func (c TotalColumns) Columns() map[string]any {
	return map[string]any{
		"total_net":   c.TotalNet,
		"total_vat":   c.TotalVat,
		"total_gross": c.TotalGross,
	}
}

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	DocumentModel
	TotalColumns
	Type         trade.OrderType   `gorm:"type:varchar(20);not null;index"`
	Number       string            `gorm:"type:varchar(50);not null;uniqueIndex:idx_orders_number,where:deleted_at IS NULL"`
	ContactID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	Currency     string            `gorm:"type:varchar(3);not null"`
	Notes        string            `gorm:"type:text"`
	Status       trade.OrderStatus `gorm:"type:varchar(20);not null;index"`
	ApprovedAt   *time.Time
	CancelledAt  *time.Time
	CancelReason string `gorm:"type:varchar(500)"`
	InvoicedAt   *time.Time
	InvoiceID    *uuid.UUID       `gorm:"type:uuid"`
	Lines        []OrderLineModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *trade.Order {
	o := &trade.Order{
		BaseDocument: m.ToDomainDocument(),
		Type:         m.Type,
		Number:       m.Number,
		ContactID:    m.ContactID,
		Currency:     valueobject.Currency(m.Currency),
		Notes:        m.Notes,
		Totals:       m.TotalColumns.toDomain(),
		Status:       m.Status,
		ApprovedAt:   m.ApprovedAt,
		CancelledAt:  m.CancelledAt,
		CancelReason: m.CancelReason,
		InvoicedAt:   m.InvoicedAt,
		InvoiceID:    m.InvoiceID,
		Lines:        make([]trade.Line, 0, len(m.Lines)),
	}
	for i := range m.Lines {
		o.Lines = append(o.Lines, m.Lines[i].ToDomain())
	}
	return o
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainDocument(o.BaseDocument)
	m.TotalColumns = totalColumnsFrom(o.Totals)
	m.Type = o.Type
	m.Number = o.Number
	m.ContactID = o.ContactID
	m.Currency = string(o.Currency)
	m.Notes = o.Notes
	m.Status = o.Status
	m.ApprovedAt = o.ApprovedAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
	m.InvoicedAt = o.InvoicedAt
	m.InvoiceID = o.InvoiceID
	m.Lines = make([]OrderLineModel, 0, len(o.Lines))
	for _, l := range o.Lines {
		m.Lines = append(m.Lines, OrderLineModelFromDomain(o.ID, l))
	}
}

// StateColumns returns the mutable columns written by a guarded update
func (m *OrderModel) StateColumns() map[string]any {
	cols := m.TotalColumns.Columns()
	cols["notes"] = m.Notes
	cols["status"] = m.Status
	cols["approved_at"] = m.ApprovedAt
	cols["cancelled_at"] = m.CancelledAt
	cols["cancel_reason"] = m.CancelReason
	cols["invoiced_at"] = m.InvoicedAt
	cols["invoice_id"] = m.InvoiceID
	return cols
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderLineModel is the persistence model for an order line.
type OrderLineModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	LineNo      int        `gorm:"not null"`
	ItemID      *uuid.UUID `gorm:"type:uuid;index"`
	Description string     `gorm:"type:varchar(500)"`
	PricedColumns
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string {
	return "order_lines"
}

// ToDomain converts the persistence model to a domain Line
func (m *OrderLineModel) ToDomain() trade.Line {
	return trade.Line{
		ID:          m.ID,
		LineNo:      m.LineNo,
		ItemID:      m.ItemID,
		Description: m.Description,
		PricedLine:  m.PricedColumns.toDomain(),
	}
}

// OrderLineModelFromDomain creates a line model owned by orderID
func OrderLineModelFromDomain(orderID uuid.UUID, l trade.Line) OrderLineModel {
	return OrderLineModel{
		ID:            l.ID,
		OrderID:       orderID,
		LineNo:        l.LineNo,
		ItemID:        l.ItemID,
		Description:   l.Description,
		PricedColumns: pricedColumnsFrom(l.PricedLine),
	}
}

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	DocumentModel
	TotalColumns
	Kind         trade.InvoiceKind   `gorm:"type:varchar(20);not null;index"`
	Number       string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoices_number,where:deleted_at IS NULL"`
	ContactID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	Currency     string              `gorm:"type:varchar(3);not null"`
	SourceType   trade.SourceType    `gorm:"type:varchar(30);index:idx_invoice_source,priority:1"`
	SourceID     *uuid.UUID          `gorm:"type:uuid;index:idx_invoice_source,priority:2"`
	IssuedAt     time.Time           `gorm:"not null"`
	Status       trade.InvoiceStatus `gorm:"type:varchar(20);not null;index"`
	CancelledAt  *time.Time
	CancelReason string             `gorm:"type:varchar(500)"`
	Lines        []InvoiceLineModel `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *trade.Invoice {
	inv := &trade.Invoice{
		BaseDocument: m.ToDomainDocument(),
		Kind:         m.Kind,
		Number:       m.Number,
		ContactID:    m.ContactID,
		Currency:     valueobject.Currency(m.Currency),
		SourceType:   m.SourceType,
		SourceID:     m.SourceID,
		IssuedAt:     m.IssuedAt,
		Totals:       m.TotalColumns.toDomain(),
		Status:       m.Status,
		CancelledAt:  m.CancelledAt,
		CancelReason: m.CancelReason,
		Lines:        make([]trade.Line, 0, len(m.Lines)),
	}
	for i := range m.Lines {
		inv.Lines = append(inv.Lines, m.Lines[i].ToDomain())
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *trade.Invoice) {
	m.FromDomainDocument(inv.BaseDocument)
	m.TotalColumns = totalColumnsFrom(inv.Totals)
	m.Kind = inv.Kind
	m.Number = inv.Number
	m.ContactID = inv.ContactID
	m.Currency = string(inv.Currency)
	m.SourceType = inv.SourceType
	m.SourceID = inv.SourceID
	m.IssuedAt = inv.IssuedAt
	m.Status = inv.Status
	m.CancelledAt = inv.CancelledAt
	m.CancelReason = inv.CancelReason
	m.Lines = make([]InvoiceLineModel, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		m.Lines = append(m.Lines, InvoiceLineModel{
			ID:            l.ID,
			InvoiceID:     inv.ID,
			LineNo:        l.LineNo,
			ItemID:        l.ItemID,
			Description:   l.Description,
			PricedColumns: pricedColumnsFrom(l.PricedLine),
		})
	}
}

// StateColumns returns the mutable columns written by a guarded update
func (m *InvoiceModel) StateColumns() map[string]any {
	return map[string]any{
		"status":        m.Status,
		"cancelled_at":  m.CancelledAt,
		"cancel_reason": m.CancelReason,
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *trade.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceLineModel is the persistence model for an invoice line.
type InvoiceLineModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	InvoiceID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	LineNo      int        `gorm:"not null"`
	ItemID      *uuid.UUID `gorm:"type:uuid"`
	Description string     `gorm:"type:varchar(500)"`
	PricedColumns
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain Line
func (m *InvoiceLineModel) ToDomain() trade.Line {
	return trade.Line{
		ID:          m.ID,
		LineNo:      m.LineNo,
		ItemID:      m.ItemID,
		Description: m.Description,
		PricedLine:  m.PricedColumns.toDomain(),
	}
}
