package sheets

import (
	"testing"

	"waterworks/internal/core"
)

func ledgerFixture() *core.AppData {
	return &core.AppData{
		Properties: []core.Property{
			{ID: "p1", Name: "Hilltop"},
			{ID: "p2", Name: "Creekside"},
		},
		Readings: []core.MeterReading{
			{ID: "r1", PropertyID: "p1", ReadingDate: "2025-01-31", BillingPeriod: "2025-01",
				ReadingValue: 105000, Usage: 5000},
		},
		Payments: []core.Payment{
			{ID: "pay1", PropertyID: "p1", Amount: 35, ReceivedDate: "2025-02-05"},
		},
		Settings: core.BillingSettings{
			FixedMonthlyFee: 20, Tier1Limit: 5000, Tier1RatePerThousand: 3,
			Tier2Limit: 15000, Tier2RatePerThousand: 4.5, Tier3RatePerThousand: 6,
		},
	}
}

func TestLedgerRowsLayout(t *testing.T) {
	rows := LedgerRows(ledgerFixture())

	// header + 2 activity rows + separator + section title + 2 balance rows
	if len(rows) != 7 {
		t.Fatalf("got %d rows, want 7", len(rows))
	}
	if rows[0][0] != "Date" || rows[0][4] != "Amount" {
		t.Fatalf("unexpected header: %v", rows[0])
	}

	// activity is oldest first
	if rows[1][0] != "2025-01-31" || rows[1][1] != "reading" {
		t.Fatalf("first activity row: %v", rows[1])
	}
	if rows[2][0] != "2025-02-05" || rows[2][1] != "payment" || rows[2][4] != "$35.00" {
		t.Fatalf("second activity row: %v", rows[2])
	}

	if len(rows[3]) != 0 {
		t.Fatalf("expected blank separator row, got %v", rows[3])
	}
	if rows[4][0] != "Final Customer Balances" {
		t.Fatalf("section title: %v", rows[4])
	}
}

func TestLedgerRowsBalances(t *testing.T) {
	rows := LedgerRows(ledgerFixture())

	// Hilltop: 5000 gal => $35 bill, $35 paid => balance 0 (credit)
	hilltop := rows[5]
	if hilltop[2] != "Hilltop" || hilltop[3] != "Credit" || hilltop[4] != "$0.00" {
		t.Fatalf("hilltop balance row: %v", hilltop)
	}

	// Creekside has no readings or payments: zero balance
	creekside := rows[6]
	if creekside[2] != "Creekside" || creekside[4] != "$0.00" {
		t.Fatalf("creekside balance row: %v", creekside)
	}
}

func TestLedgerRowsReadingsHaveNoAmount(t *testing.T) {
	rows := LedgerRows(ledgerFixture())
	if rows[1][4] != "" {
		t.Fatalf("reading rows carry no amount, got %v", rows[1][4])
	}
}
