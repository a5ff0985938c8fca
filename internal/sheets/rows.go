// Package sheets exports a ledger snapshot of the document to a Google
// spreadsheet: every payment and reading as a row, followed by the final
// balance of each customer.
package sheets

import (
	"waterworks/internal/core"
)

var ledgerHeader = []any{"Date", "Type", "Property", "Description", "Amount"}

// LedgerRows flattens the document into spreadsheet rows, oldest first.
func LedgerRows(data *core.AppData) [][]any {
	rows := [][]any{ledgerHeader}

	for _, item := range core.Activity(data, true) {
		amount := ""
		if item.Type == core.ActivityPayment {
			amount = core.FormatCurrency(item.Amount)
		}
		rows = append(rows, []any{
			item.Date,
			string(item.Type),
			item.PropertyName,
			item.Description,
			amount,
		})
	}

	rows = append(rows, []any{}, []any{"Final Customer Balances"})
	for _, p := range data.Properties {
		balance := core.PropertyBalance(p, data.Readings, data.Payments, data.Settings)
		status := "Due"
		if balance >= 0 {
			status = "Credit"
		}
		rows = append(rows, []any{
			"", "", p.Name, status, core.FormatCurrency(balance),
		})
	}

	return rows
}
