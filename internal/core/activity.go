package core

import "sort"

// ActivityType distinguishes the two kinds of account activity.
type ActivityType string

const (
	ActivityPayment ActivityType = "payment"
	ActivityReading ActivityType = "reading"
)

// ActivityItem is one row of the combined reading/payment history shown on
// the dashboard and exported to CSV.
type ActivityItem struct {
	ID           string       `json:"id"`
	OriginalID   string       `json:"originalId"`
	Type         ActivityType `json:"type"`
	PropertyID   string       `json:"propertyId"`
	PropertyName string       `json:"propertyName"`
	Date         string       `json:"date"`
	Description  string       `json:"description"`
	Amount       float64      `json:"amount,omitempty"`
	Usage        float64      `json:"usage,omitempty"`
}

// Activity merges readings and payments into a single history, ordered by
// date. Ascending order suits the CSV export; callers wanting newest-first
// reverse it. Rows referencing an unknown property carry the name "Unknown".
func Activity(data *AppData, ascending bool) []ActivityItem {
	items := make([]ActivityItem, 0, len(data.Payments)+len(data.Readings))

	for _, p := range data.Payments {
		desc := p.Notes
		if desc == "" {
			desc = "Payment received"
		}
		items = append(items, ActivityItem{
			ID:           "payment-" + p.ID,
			OriginalID:   p.ID,
			Type:         ActivityPayment,
			PropertyID:   p.PropertyID,
			PropertyName: data.PropertyName(p.PropertyID),
			Date:         p.ReceivedDate,
			Description:  desc,
			Amount:       p.Amount,
		})
	}

	for _, r := range data.Readings {
		items = append(items, ActivityItem{
			ID:           "reading-" + r.ID,
			OriginalID:   r.ID,
			Type:         ActivityReading,
			PropertyID:   r.PropertyID,
			PropertyName: data.PropertyName(r.PropertyID),
			Date:         r.ReadingDate,
			Description:  "Meter reading: " + FormatGallons(r.ReadingValue),
			Usage:        r.Usage,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if ascending {
			return items[i].Date < items[j].Date
		}
		return items[i].Date > items[j].Date
	})
	return items
}
