package core

import "testing"

func activityFixture() *AppData {
	return &AppData{
		Properties: []Property{{ID: "p1", Name: "Hilltop"}},
		Readings: []MeterReading{
			{ID: "r1", PropertyID: "p1", ReadingDate: "2025-01-31", ReadingValue: 104500, Usage: 4500},
		},
		Payments: []Payment{
			{ID: "pay1", PropertyID: "p1", Amount: 35, ReceivedDate: "2025-02-05", Notes: "Check #88"},
			{ID: "pay2", PropertyID: "ghost", Amount: 10, ReceivedDate: "2025-01-02"},
		},
	}
}

func TestActivityOrdering(t *testing.T) {
	items := Activity(activityFixture(), true)
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].Date < items[i-1].Date {
			t.Fatalf("ascending order violated at %d: %s < %s", i, items[i].Date, items[i-1].Date)
		}
	}

	newestFirst := Activity(activityFixture(), false)
	if newestFirst[0].Date != "2025-02-05" {
		t.Fatalf("descending order: got first date %s", newestFirst[0].Date)
	}
}

func TestActivityDescriptionsAndUnknowns(t *testing.T) {
	items := Activity(activityFixture(), true)

	var ghost, reading *ActivityItem
	for i := range items {
		switch items[i].ID {
		case "payment-pay2":
			ghost = &items[i]
		case "reading-r1":
			reading = &items[i]
		}
	}
	if ghost == nil || ghost.PropertyName != "Unknown" {
		t.Fatalf("dangling payment should render Unknown, got %+v", ghost)
	}
	if ghost.Description != "Payment received" {
		t.Fatalf("empty notes should default description, got %q", ghost.Description)
	}
	if reading == nil || reading.Description != "Meter reading: 104,500" {
		t.Fatalf("reading description: got %+v", reading)
	}
}
