package models

// All returns every persistence model, in dependency order, for schema
// creation in tests and development databases.
func All() []any {
	return []any{
		&ContactModel{},
		&StockLevelModel{},
		&OrderModel{},
		&OrderLineModel{},
		&InvoiceModel{},
		&InvoiceLineModel{},
		&ChequeModel{},
		&PaymentModel{},
		&ExpenseListModel{},
		&ExpenseLineModel{},
		&OutboxEntryModel{},
	}
}
