package export

import (
	"strings"
	"testing"

	"waterworks/internal/core"
)

func TestInvoicePrintHTML(t *testing.T) {
	data := exportFixture()
	invoices := core.InvoicesForPeriod(data, "2025-01", "2025-02-01")
	if len(invoices) != 2 {
		t.Fatalf("fixture should yield 2 invoices, got %d", len(invoices))
	}

	body, err := InvoicePrintHTML(data, "2025-01", invoices)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(body)

	for _, fragment := range []string{
		"Linda Vista Water",
		"Water Service Invoice",
		"All Invoices - January 2025",
		"Hilltop Household",
		"Creekside Household",
		"Monthly Service Fee",
		"Current Account Balance",
	} {
		if !strings.Contains(html, fragment) {
			t.Fatalf("missing %q in output", fragment)
		}
	}

	// one page per invoice
	if got := strings.Count(html, `class="invoice"`); got != 2 {
		t.Fatalf("got %d invoice pages, want 2", got)
	}
}

func TestInvoicePrintHTMLTierRows(t *testing.T) {
	data := exportFixture()
	invoices := core.InvoicesForPeriod(data, "2025-01", "2025-02-01")

	body, err := InvoicePrintHTML(data, "2025-01", invoices)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(body)

	// Hilltop used 5000 gal: only tier 1 applies, Creekside's 20000 reaches tier 3
	if strings.Count(html, "Tier 1 Water Usage") != 2 {
		t.Fatalf("both invoices bill tier 1")
	}
	if strings.Count(html, "Tier 3 Water Usage") != 1 {
		t.Fatalf("only creekside reaches tier 3")
	}
}

func TestInvoicePrintHTMLBalanceLabels(t *testing.T) {
	data := exportFixture()
	invoices := core.InvoicesForPeriod(data, "2025-01", "2025-02-01")

	body, err := InvoicePrintHTML(data, "2025-01", invoices)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(body)

	// Hilltop is settled (credit), Creekside owes $110
	if !strings.Contains(html, "Credit") {
		t.Fatalf("expected a Credit label")
	}
	if !strings.Contains(html, "Amount Due") {
		t.Fatalf("expected an Amount Due label")
	}
	if !strings.Contains(html, "$110.00") {
		t.Fatalf("expected absolute balance $110.00")
	}
}

func TestInvoicePrintHTMLEscapesAddress(t *testing.T) {
	data := exportFixture()
	data.Properties[0].Address = `<script>alert("x")</script>`
	invoices := core.InvoicesForPeriod(data, "2025-01", "2025-02-01")

	body, err := InvoicePrintHTML(data, "2025-01", invoices)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(body), "<script>alert") {
		t.Fatalf("address must be escaped")
	}
}
