package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type (
	// Meter is a physical water meter attached to a property. Shift is
	// register metadata carried through the document; balance math never
	// reads it.
	Meter struct {
		ID    string  `json:"id"`
		Label string  `json:"label"`
		Shift float64 `json:"shift"`
	}

	// Property is a billed account: one household, one running balance.
	Property struct {
		ID                string  `json:"id"`
		Name              string  `json:"name"`
		Address           string  `json:"address"`
		BalanceAdjustment float64 `json:"balanceAdjustment"`
		Meters            []Meter `json:"meters"`
	}

	// MeterReading records a cumulative meter index. RawUsage is the delta
	// from the previous reading of the same meter; Usage is the billable
	// gallon count attributed to exactly one billing period.
	MeterReading struct {
		ID            string  `json:"id"`
		MeterID       string  `json:"meterId"`
		PropertyID    string  `json:"propertyId"`
		ReadingDate   string  `json:"readingDate"`
		BillingPeriod string  `json:"billingPeriod"`
		ReadingValue  float64 `json:"readingValue"`
		RawUsage      float64 `json:"rawUsage"`
		Usage         float64 `json:"usage"`
	}

	// Payment is a credit against a property's balance.
	Payment struct {
		ID           string  `json:"id"`
		PropertyID   string  `json:"propertyId"`
		Amount       float64 `json:"amount"`
		ReceivedDate string  `json:"receivedDate"`
		Notes        string  `json:"notes"`
	}

	// Invoice is a derived view over one property and one billing period.
	// Invoices are recomputed from readings, payments and settings on every
	// request; the persisted invoices array is legacy data surfaced only as
	// a count.
	Invoice struct {
		ID              string  `json:"id"`
		PropertyID      string  `json:"propertyId"`
		BillingPeriod   string  `json:"billingPeriod"`
		GeneratedDate   string  `json:"generatedDate"`
		TotalGallons    float64 `json:"totalGallons"`
		Tier1Gallons    float64 `json:"tier1Gallons"`
		Tier2Gallons    float64 `json:"tier2Gallons"`
		Tier3Gallons    float64 `json:"tier3Gallons"`
		Tier1Charge     float64 `json:"tier1Charge"`
		Tier2Charge     float64 `json:"tier2Charge"`
		Tier3Charge     float64 `json:"tier3Charge"`
		FixedCharge     float64 `json:"fixedCharge"`
		TotalAmount     float64 `json:"totalAmount"`
		PreviousBalance float64 `json:"previousBalance"`
		AmountDue       float64 `json:"amountDue"`
	}

	// Neighbor is a contact attached to a property.
	Neighbor struct {
		ID         string `json:"id"`
		PropertyID string `json:"propertyId"`
		Name       string `json:"name"`
		Email      string `json:"email"`
		Notes      string `json:"notes"`
		CreatedAt  string `json:"createdAt"`
	}

	// BillingSettings is the singleton tiered rate schedule shared by all
	// properties. Rates are dollars per thousand gallons; Tier3Limit is
	// carried for document compatibility but tier 3 is unbounded.
	BillingSettings struct {
		FixedMonthlyFee      float64 `json:"fixedMonthlyFee"`
		Tier1Limit           float64 `json:"tier1Limit"`
		Tier1RatePerThousand float64 `json:"tier1RatePerThousand"`
		Tier2Limit           float64 `json:"tier2Limit"`
		Tier2RatePerThousand float64 `json:"tier2RatePerThousand"`
		Tier3Limit           float64 `json:"tier3Limit"`
		Tier3RatePerThousand float64 `json:"tier3RatePerThousand"`
	}

	// AppData is the whole persisted document. Field names and the
	// "YYYY-MM-DD" / "YYYY-MM" string formats are load-bearing: every store
	// backend round-trips this shape byte-for-byte up to key order.
	AppData struct {
		Properties []Property      `json:"properties"`
		Readings   []MeterReading  `json:"readings"`
		Payments   []Payment       `json:"payments"`
		Invoices   []Invoice       `json:"invoices"`
		Neighbors  []Neighbor      `json:"neighbors"`
		Settings   BillingSettings `json:"settings"`
	}
)

var (
	ErrEmptyID         = errors.New("empty id")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidPeriod   = errors.New("invalid billing period")
	ErrUnknownProperty = errors.New("unknown property")
	ErrUnknownReading  = errors.New("unknown reading")
	ErrUnknownPayment  = errors.New("unknown payment")
	ErrTierOrder       = errors.New("tier limits must be non-decreasing")
)

// NewID returns a fresh UUID string for a new entity.
func NewID() string {
	return uuid.NewString()
}

// ValidDate reports whether s is a zero-padded "YYYY-MM-DD" date.
func ValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil && len(s) == 10
}

// ValidPeriod reports whether s is a zero-padded "YYYY-MM" billing period.
// The fixed width is what makes lexicographic period comparison valid.
func ValidPeriod(s string) bool {
	_, err := time.Parse("2006-01", s)
	return err == nil && len(s) == 7
}

func (p Property) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (r MeterReading) Validate() error {
	if strings.TrimSpace(r.ID) == "" || strings.TrimSpace(r.MeterID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(r.PropertyID) == "" {
		return ErrUnknownProperty
	}
	if !ValidDate(r.ReadingDate) {
		return ErrInvalidDate
	}
	if !ValidPeriod(r.BillingPeriod) {
		return ErrInvalidPeriod
	}
	return nil
}

func (p Payment) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(p.PropertyID) == "" {
		return ErrUnknownProperty
	}
	if p.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !ValidDate(p.ReceivedDate) {
		return ErrInvalidDate
	}
	return nil
}

// Validate checks the rate schedule an operator submits. The billing
// calculator itself never validates: malformed tiers degrade to clamped
// zero-width bands there.
func (s BillingSettings) Validate() error {
	if s.FixedMonthlyFee < 0 || s.Tier1RatePerThousand < 0 ||
		s.Tier2RatePerThousand < 0 || s.Tier3RatePerThousand < 0 {
		return ErrInvalidAmount
	}
	if s.Tier1Limit < 0 || s.Tier2Limit < s.Tier1Limit {
		return ErrTierOrder
	}
	return nil
}

// PropertyByID returns the property with the given id, or nil.
func (d *AppData) PropertyByID(id string) *Property {
	for i := range d.Properties {
		if d.Properties[i].ID == id {
			return &d.Properties[i]
		}
	}
	return nil
}

// PropertyName resolves a property id for display; dangling references
// render as "Unknown" rather than failing.
func (d *AppData) PropertyName(id string) string {
	if p := d.PropertyByID(id); p != nil {
		return p.Name
	}
	return "Unknown"
}
