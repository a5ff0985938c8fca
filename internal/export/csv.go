// Package export renders the document into downloadable formats: CSV for
// spreadsheets, HTML for printing invoices.
package export

import (
	"bytes"
	"strconv"
	"strings"

	"waterworks/internal/core"
)

const (
	activityHeader = "Date,Type,Property,Description,Amount"
	invoicesHeader = "Property,Billing Period,Total Gallons,Fixed Fee," +
		"Tier 1,Tier 2,Tier 3,Total Amount,Previous Balance,Amount Due"
	balancesSectionHeader = "Final Customer Balances"
)

// writeRow writes one data row with every field double-quoted. Header and
// section-header lines stay literal; only data cells are quoted.
func writeRow(buf *bytes.Buffer, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

// gallons formats a gallon count as a plain decimal number, however large.
func gallons(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ActivityCSV renders every payment and reading oldest first, followed by a
// "Final Customer Balances" section with the running balance per property.
func ActivityCSV(data *core.AppData) []byte {
	var buf bytes.Buffer
	buf.WriteString(activityHeader)
	buf.WriteByte('\n')

	for _, item := range core.Activity(data, true) {
		amount := ""
		if item.Type == core.ActivityPayment {
			amount = core.FormatCurrency(item.Amount)
		}
		writeRow(&buf, item.Date, string(item.Type), item.PropertyName, item.Description, amount)
	}

	buf.WriteByte('\n')
	buf.WriteString(balancesSectionHeader)
	buf.WriteByte('\n')
	for _, p := range data.Properties {
		balance := core.PropertyBalance(p, data.Readings, data.Payments, data.Settings)
		status := "Due"
		if balance >= 0 {
			status = "Credit"
		}
		writeRow(&buf, "", "", p.Name, status, core.FormatCurrency(balance))
	}

	return buf.Bytes()
}

// InvoicesCSV renders the derived invoices of one billing period.
func InvoicesCSV(data *core.AppData, invoices []core.Invoice) []byte {
	var buf bytes.Buffer
	buf.WriteString(invoicesHeader)
	buf.WriteByte('\n')

	for _, inv := range invoices {
		writeRow(&buf,
			data.PropertyName(inv.PropertyID),
			core.FormatBillingPeriod(inv.BillingPeriod),
			gallons(inv.TotalGallons),
			strconv.FormatFloat(inv.FixedCharge, 'f', 2, 64),
			strconv.FormatFloat(inv.Tier1Charge, 'f', 2, 64),
			strconv.FormatFloat(inv.Tier2Charge, 'f', 2, 64),
			strconv.FormatFloat(inv.Tier3Charge, 'f', 2, 64),
			strconv.FormatFloat(inv.TotalAmount, 'f', 2, 64),
			strconv.FormatFloat(inv.PreviousBalance, 'f', 2, 64),
			strconv.FormatFloat(inv.AmountDue, 'f', 2, 64),
		)
	}

	return buf.Bytes()
}
