// Package core holds the domain model and the billing arithmetic for the
// water company: the tiered-rate calculator, the running-balance fold and
// the derived invoice views. Everything here is a pure function over the
// in-memory document; nothing mutates or performs I/O.
package core

import (
	"fmt"
	"math"
	"sort"
)

// BillCalculation is the tiered charge breakdown for one period's usage.
type BillCalculation struct {
	TotalGallons float64 `json:"totalGallons"`
	Tier1Gallons float64 `json:"tier1Gallons"`
	Tier2Gallons float64 `json:"tier2Gallons"`
	Tier3Gallons float64 `json:"tier3Gallons"`
	Tier1Charge  float64 `json:"tier1Charge"`
	Tier2Charge  float64 `json:"tier2Charge"`
	Tier3Charge  float64 `json:"tier3Charge"`
	FixedCharge  float64 `json:"fixedCharge"`
	TotalAmount  float64 `json:"totalAmount"`
}

// PeriodUsage pairs a billing period with its summed usage.
type PeriodUsage struct {
	Period string  `json:"period"`
	Usage  float64 `json:"usage"`
}

// CalculateBill splits usage across the three rate tiers and prices each at
// its per-1000-gallon rate on top of the fixed monthly fee. Callers must
// clamp negative usage to zero first; the tier bands themselves clamp, so a
// malformed schedule (tier2Limit below tier1Limit) yields an empty tier 2
// band rather than an error. No rounding happens here — display code rounds.
func CalculateBill(usage float64, settings BillingSettings) BillCalculation {
	tier1 := math.Min(usage, settings.Tier1Limit)
	tier2 := math.Max(0, math.Min(usage-settings.Tier1Limit, settings.Tier2Limit-settings.Tier1Limit))
	tier3 := math.Max(0, usage-settings.Tier2Limit)

	tier1Charge := tier1 / 1000 * settings.Tier1RatePerThousand
	tier2Charge := tier2 / 1000 * settings.Tier2RatePerThousand
	tier3Charge := tier3 / 1000 * settings.Tier3RatePerThousand

	return BillCalculation{
		TotalGallons: usage,
		Tier1Gallons: tier1,
		Tier2Gallons: tier2,
		Tier3Gallons: tier3,
		Tier1Charge:  tier1Charge,
		Tier2Charge:  tier2Charge,
		Tier3Charge:  tier3Charge,
		FixedCharge:  settings.FixedMonthlyFee,
		TotalAmount:  settings.FixedMonthlyFee + tier1Charge + tier2Charge + tier3Charge,
	}
}

// PropertyBalance folds a property's entire history into its running
// balance: the manual adjustment, minus one monthly bill per distinct
// billing period with usage, plus every payment. The fold is commutative
// over periods and payments, so recomputing from scratch is always correct.
//
// Sign convention (canonical for the whole application): a positive balance
// is a credit the property holds, a negative balance is the amount due.
func PropertyBalance(property Property, readings []MeterReading, payments []Payment, settings BillingSettings) float64 {
	balance := property.BalanceAdjustment

	for _, usage := range usageByPeriod(property.ID, readings) {
		bill := CalculateBill(math.Max(0, usage), settings)
		balance -= bill.TotalAmount
	}

	for _, p := range payments {
		if p.PropertyID == property.ID {
			balance += p.Amount
		}
	}

	return balance
}

// UsageForPeriod sums billable usage across all of a property's readings in
// one billing period. Multiple meters in the same period accumulate.
func UsageForPeriod(propertyID, billingPeriod string, readings []MeterReading) float64 {
	var sum float64
	for _, r := range readings {
		if r.PropertyID == propertyID && r.BillingPeriod == billingPeriod {
			sum += r.Usage
		}
	}
	return sum
}

// LastSixMonthsUsage returns per-period usage for chart rendering: at most
// the six most recent distinct periods, ascending.
func LastSixMonthsUsage(propertyID string, readings []MeterReading) []PeriodUsage {
	byPeriod := usageByPeriod(propertyID, readings)

	out := make([]PeriodUsage, 0, len(byPeriod))
	for period, usage := range byPeriod {
		out = append(out, PeriodUsage{Period: period, Usage: usage})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })

	if len(out) > 6 {
		out = out[len(out)-6:]
	}
	return out
}

// GenerateInvoice builds the invoice view for one property and period.
// carriedBalance is the running balance the customer brought into this
// period (positive = credit, per the canonical convention); the invoice
// stores its negation as PreviousBalance so that a positive PreviousBalance
// reads as an amount owed coming in.
func GenerateInvoice(property Property, billingPeriod string, readings []MeterReading, settings BillingSettings, carriedBalance float64, generatedDate string) Invoice {
	usage := UsageForPeriod(property.ID, billingPeriod, readings)
	bill := CalculateBill(math.Max(0, usage), settings)

	return Invoice{
		ID:              fmt.Sprintf("inv-%s-%s", property.ID, billingPeriod),
		PropertyID:      property.ID,
		BillingPeriod:   billingPeriod,
		GeneratedDate:   generatedDate,
		TotalGallons:    bill.TotalGallons,
		Tier1Gallons:    bill.Tier1Gallons,
		Tier2Gallons:    bill.Tier2Gallons,
		Tier3Gallons:    bill.Tier3Gallons,
		Tier1Charge:     bill.Tier1Charge,
		Tier2Charge:     bill.Tier2Charge,
		Tier3Charge:     bill.Tier3Charge,
		FixedCharge:     bill.FixedCharge,
		TotalAmount:     bill.TotalAmount,
		PreviousBalance: -carriedBalance,
		AmountDue:       bill.TotalAmount - carriedBalance,
	}
}

// InvoicesForPeriod recomputes the invoices for every property with usage in
// the given period. The carried balance folds strictly-earlier-period
// readings and strictly-earlier-date payments; both comparisons are
// lexicographic, which the fixed-width "YYYY-MM" / "YYYY-MM-DD" formats make
// equivalent to chronological order.
func InvoicesForPeriod(data *AppData, billingPeriod, generatedDate string) []Invoice {
	var earlierReadings []MeterReading
	for _, r := range data.Readings {
		if r.BillingPeriod < billingPeriod {
			earlierReadings = append(earlierReadings, r)
		}
	}
	var earlierPayments []Payment
	for _, p := range data.Payments {
		if p.ReceivedDate < billingPeriod {
			earlierPayments = append(earlierPayments, p)
		}
	}

	var invoices []Invoice
	for _, property := range data.Properties {
		if UsageForPeriod(property.ID, billingPeriod, data.Readings) <= 0 {
			continue
		}
		carried := PropertyBalance(property, earlierReadings, earlierPayments, data.Settings)
		invoices = append(invoices, GenerateInvoice(property, billingPeriod, data.Readings, data.Settings, carried, generatedDate))
	}
	return invoices
}

// usageByPeriod groups a property's readings by billing period, summing
// usage within each period.
func usageByPeriod(propertyID string, readings []MeterReading) map[string]float64 {
	byPeriod := make(map[string]float64)
	for _, r := range readings {
		if r.PropertyID == propertyID {
			byPeriod[r.BillingPeriod] += r.Usage
		}
	}
	return byPeriod
}
