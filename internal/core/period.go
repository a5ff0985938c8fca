package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var monthNames = [13]string{"", "January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December"}

var shortMonthNames = [13]string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Period returns the "YYYY-MM" billing period containing t.
func Period(t time.Time) string {
	return t.Format("2006-01")
}

// CurrentPeriod returns the billing period for the current month.
func CurrentPeriod(now time.Time) string {
	return Period(now)
}

// DefaultReadingPeriod returns the period a newly logged reading defaults
// to: the previous calendar month. A reading taken in early December
// measures November's water.
func DefaultReadingPeriod(now time.Time) string {
	return Period(now.AddDate(0, -1, 0))
}

// FormatBillingPeriod renders "2025-01" as "January 2025". Strings that are
// not well-formed periods pass through unchanged.
func FormatBillingPeriod(period string) string {
	year, month, ok := splitPeriod(period)
	if !ok {
		return period
	}
	return monthNames[month] + " " + year
}

// FormatShortPeriod renders "2025-01" as "Jan" for chart axis labels.
func FormatShortPeriod(period string) string {
	_, month, ok := splitPeriod(period)
	if !ok {
		return period
	}
	return shortMonthNames[month]
}

// FormatCurrency renders a dollar amount for display, e.g. "$12.34" and
// "-$5.00". This is the only place billing amounts get rounded.
func FormatCurrency(amount float64) string {
	if amount < 0 {
		return fmt.Sprintf("-$%.2f", math.Abs(amount))
	}
	return fmt.Sprintf("$%.2f", amount)
}

// FormatGallons renders a whole gallon count with thousands separators.
func FormatGallons(gallons float64) string {
	n := int64(math.Round(gallons))
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-" + s
	}
	return s
}

// Today returns the current date in the document's "YYYY-MM-DD" format.
func Today(now time.Time) string {
	return now.Format("2006-01-02")
}

// FormatDate renders "2025-01-15" as "Jan 15, 2025"; anything unparsable
// passes through unchanged.
func FormatDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2, 2006")
}

func splitPeriod(period string) (year string, month int, ok bool) {
	parts := strings.Split(period, "-")
	if len(parts) != 2 {
		return "", 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return "", 0, false
	}
	return parts[0], m, true
}
