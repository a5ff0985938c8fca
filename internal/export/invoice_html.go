package export

import (
	"bytes"
	"fmt"
	"html/template"
	"math"

	"waterworks/internal/core"
)

// printInvoice is the view model for one printed invoice page.
type printInvoice struct {
	PropertyName string
	Address      string
	Period       string
	Generated    string
	TotalGallons string
	FixedCharge  string
	Tier1Gallons string
	Tier1Charge  string
	Tier2Gallons string
	Tier2Charge  string
	Tier3Gallons string
	Tier3Charge  string
	TotalAmount  string
	Balance      string
	BalanceLabel string
	HasCredit    bool
}

type printPage struct {
	Title    string
	Invoices []printInvoice
}

var invoicePrintTmpl = template.Must(template.New("invoice-print").Parse(`<!DOCTYPE html>
<html>
<head>
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, -apple-system, sans-serif; margin: 0; }
.invoice { page-break-after: always; padding: 40px; }
.header { text-align: center; margin-bottom: 40px; }
.header h1 { margin: 0; font-size: 24px; }
.header p { color: #666; margin: 5px 0; }
.meta { display: flex; justify-content: space-between; margin-bottom: 30px; }
.meta h3 { margin: 0 0 5px 0; font-size: 14px; color: #666; }
.meta p { margin: 0; }
.usage p { font-size: 28px; font-weight: bold; color: #3366AA; margin: 0; }
table { width: 100%; border-collapse: collapse; margin: 20px 0; }
th, td { padding: 12px; border-bottom: 1px solid #ddd; }
th { text-align: left; border-bottom: 2px solid #ddd; }
.num { text-align: right; }
.total td { font-weight: 600; }
.balance { padding: 20px; border-radius: 8px; text-align: center; }
.balance.credit { background: #f0fdf4; color: #22c55e; }
.balance.due { background: #fef2f2; color: #dc2626; }
.balance .amount { font-size: 28px; font-weight: bold; margin: 0; }
@media print { .invoice { page-break-inside: avoid; } }
</style>
</head>
<body>
{{range .Invoices}}
<div class="invoice">
  <div class="header">
    <h1>Linda Vista Water</h1>
    <p>Water Service Invoice</p>
  </div>
  <div class="meta">
    <div>
      <h3>Invoice for</h3>
      <p><strong>{{.PropertyName}} Household</strong></p>
      <p style="white-space: pre-line;">{{.Address}}</p>
    </div>
    <div style="text-align: right;">
      <h3>Invoice Details</h3>
      <p>Period: {{.Period}}</p>
      <p>Generated: {{.Generated}}</p>
    </div>
  </div>
  <div class="usage">
    <h3>Usage Summary</h3>
    <p>{{.TotalGallons}} <span style="font-size: 16px; font-weight: normal;">gallons</span></p>
  </div>
  <table>
    <thead>
      <tr><th>Description</th><th class="num">Quantity</th><th class="num">Amount</th></tr>
    </thead>
    <tbody>
      <tr><td>Monthly Service Fee</td><td class="num">1</td><td class="num">{{.FixedCharge}}</td></tr>
      {{if .Tier1Gallons}}<tr><td>Tier 1 Water Usage</td><td class="num">{{.Tier1Gallons}} gal</td><td class="num">{{.Tier1Charge}}</td></tr>{{end}}
      {{if .Tier2Gallons}}<tr><td>Tier 2 Water Usage</td><td class="num">{{.Tier2Gallons}} gal</td><td class="num">{{.Tier2Charge}}</td></tr>{{end}}
      {{if .Tier3Gallons}}<tr><td>Tier 3 Water Usage</td><td class="num">{{.Tier3Gallons}} gal</td><td class="num">{{.Tier3Charge}}</td></tr>{{end}}
      <tr class="total"><td>Current Charges</td><td></td><td class="num">{{.TotalAmount}}</td></tr>
    </tbody>
  </table>
  <div class="balance {{if .HasCredit}}credit{{else}}due{{end}}">
    <p style="font-size: 14px; color: #666; margin: 0 0 5px 0;">Current Account Balance</p>
    <p class="amount">{{.Balance}}</p>
    <p style="font-size: 14px; margin: 5px 0 0 0;">{{.BalanceLabel}}</p>
  </div>
</div>
{{end}}
</body>
</html>
`))

// InvoicePrintHTML renders the print view for every invoice of a period,
// one page per invoice.
func InvoicePrintHTML(data *core.AppData, billingPeriod string, invoices []core.Invoice) ([]byte, error) {
	page := printPage{
		Title: fmt.Sprintf("All Invoices - %s", core.FormatBillingPeriod(billingPeriod)),
	}

	for _, inv := range invoices {
		property := data.PropertyByID(inv.PropertyID)
		name, address := "Unknown", ""
		if property != nil {
			name, address = property.Name, property.Address
		}

		var balance float64
		if property != nil {
			balance = core.PropertyBalance(*property, data.Readings, data.Payments, data.Settings)
		}
		hasCredit := balance >= 0
		label := "Amount Due"
		if hasCredit {
			label = "Credit"
		}

		view := printInvoice{
			PropertyName: name,
			Address:      address,
			Period:       core.FormatBillingPeriod(inv.BillingPeriod),
			Generated:    inv.GeneratedDate,
			TotalGallons: core.FormatGallons(inv.TotalGallons),
			FixedCharge:  core.FormatCurrency(inv.FixedCharge),
			TotalAmount:  core.FormatCurrency(inv.TotalAmount),
			Balance:      core.FormatCurrency(math.Abs(balance)),
			BalanceLabel: label,
			HasCredit:    hasCredit,
		}
		if inv.Tier1Gallons > 0 {
			view.Tier1Gallons = core.FormatGallons(inv.Tier1Gallons)
			view.Tier1Charge = core.FormatCurrency(inv.Tier1Charge)
		}
		if inv.Tier2Gallons > 0 {
			view.Tier2Gallons = core.FormatGallons(inv.Tier2Gallons)
			view.Tier2Charge = core.FormatCurrency(inv.Tier2Charge)
		}
		if inv.Tier3Gallons > 0 {
			view.Tier3Gallons = core.FormatGallons(inv.Tier3Gallons)
			view.Tier3Charge = core.FormatCurrency(inv.Tier3Charge)
		}
		page.Invoices = append(page.Invoices, view)
	}

	var buf bytes.Buffer
	if err := invoicePrintTmpl.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render invoice print view: %w", err)
	}
	return buf.Bytes(), nil
}
