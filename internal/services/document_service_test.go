package services

import (
	"context"
	"errors"
	"testing"

	"waterworks/internal/core"
	"waterworks/internal/store"
	"waterworks/internal/store/memory"
)

type fakePublisher struct {
	revisions []int64
	fail      bool
	closed    bool
}

func (f *fakePublisher) PublishDocumentSync(ctx context.Context, revision int64) error {
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.revisions = append(f.revisions, revision)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func seededService(t *testing.T, pub SyncPublisher) *DocumentService {
	t.Helper()
	st := memory.New()
	doc := store.Empty()
	doc.Properties = []core.Property{
		{ID: "p1", Name: "Hilltop", Meters: []core.Meter{{ID: "m1", Label: "Main"}}},
	}
	doc.Settings = core.BillingSettings{
		FixedMonthlyFee: 20, Tier1Limit: 5000, Tier1RatePerThousand: 3,
		Tier2Limit: 15000, Tier2RatePerThousand: 4.5, Tier3RatePerThousand: 6,
	}
	st.Seed(doc)
	return NewDocumentService(st, pub)
}

func TestGetReturnsIsolatedCopies(t *testing.T) {
	svc := seededService(t, nil)
	ctx := context.Background()

	a, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	a.Properties[0].Name = "Mutated"

	b, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.Properties[0].Name != "Hilltop" {
		t.Fatalf("caller mutation leaked into service: %q", b.Properties[0].Name)
	}
}

func TestUpdatePersistsAndBumpsRevision(t *testing.T) {
	pub := &fakePublisher{}
	svc := seededService(t, pub)
	ctx := context.Background()

	err := svc.Update(ctx, func(data *core.AppData) error {
		data.Payments = append(data.Payments, core.Payment{
			ID: "pay1", PropertyID: "p1", Amount: 35, ReceivedDate: "2025-02-05",
		})
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if svc.Revision() != 1 {
		t.Fatalf("revision = %d, want 1", svc.Revision())
	}
	if len(pub.revisions) != 1 || pub.revisions[0] != 1 {
		t.Fatalf("published revisions = %v, want [1]", pub.revisions)
	}

	data, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(data.Payments) != 1 {
		t.Fatalf("payment not persisted: %+v", data.Payments)
	}
}

func TestUpdateMutateErrorLeavesDocumentUntouched(t *testing.T) {
	svc := seededService(t, nil)
	ctx := context.Background()

	err := svc.Update(ctx, func(data *core.AppData) error {
		data.Properties = nil
		return errors.New("nope")
	})
	if err == nil {
		t.Fatalf("expected error")
	}

	data, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(data.Properties) != 1 {
		t.Fatalf("failed mutation leaked: %+v", data.Properties)
	}
	if svc.Revision() != 0 {
		t.Fatalf("revision must not advance on failure")
	}
}

func TestUpdateSurvivesPublishFailure(t *testing.T) {
	pub := &fakePublisher{fail: true}
	svc := seededService(t, pub)

	err := svc.Update(context.Background(), func(data *core.AppData) error { return nil })
	if err != nil {
		t.Fatalf("publish failure must not fail the save: %v", err)
	}
	if svc.Revision() != 1 {
		t.Fatalf("revision = %d, want 1", svc.Revision())
	}
}

func TestReplaceSwapsWholeDocument(t *testing.T) {
	svc := seededService(t, nil)
	ctx := context.Background()

	next := store.Empty()
	next.Properties = []core.Property{{ID: "p9", Name: "Creekside"}}
	if err := svc.Replace(ctx, next); err != nil {
		t.Fatalf("replace: %v", err)
	}

	data, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(data.Properties) != 1 || data.Properties[0].ID != "p9" {
		t.Fatalf("replace did not take: %+v", data.Properties)
	}
}

func TestAddReadingComputesUsage(t *testing.T) {
	svc := seededService(t, nil)
	ctx := context.Background()

	// A meter with no history has a baseline of 0, so the first reading
	// bills its full index.
	first, err := svc.AddReading(ctx, core.MeterReading{
		MeterID: "m1", PropertyID: "p1",
		ReadingDate: "2025-01-31", BillingPeriod: "2025-01", ReadingValue: 100000,
	})
	if err != nil {
		t.Fatalf("first reading: %v", err)
	}
	if first.Usage != 100000 || first.RawUsage != 100000 {
		t.Fatalf("first reading usage = %v raw = %v, want 100000", first.Usage, first.RawUsage)
	}

	second, err := svc.AddReading(ctx, core.MeterReading{
		MeterID: "m1", PropertyID: "p1",
		ReadingDate: "2025-02-28", BillingPeriod: "2025-02", ReadingValue: 104500,
	})
	if err != nil {
		t.Fatalf("second reading: %v", err)
	}
	if second.Usage != 4500 || second.RawUsage != 4500 {
		t.Fatalf("usage = %v raw = %v, want 4500", second.Usage, second.RawUsage)
	}
}

func TestAddReadingBaselineIsLatestBillingPeriod(t *testing.T) {
	svc := seededService(t, nil)
	ctx := context.Background()

	// February logged first, January backfilled later with a later entry
	// date. The baseline for March is the February reading, not January.
	if _, err := svc.AddReading(ctx, core.MeterReading{
		MeterID: "m1", PropertyID: "p1",
		ReadingDate: "2025-03-01", BillingPeriod: "2025-02", ReadingValue: 110000,
	}); err != nil {
		t.Fatalf("february reading: %v", err)
	}
	if _, err := svc.AddReading(ctx, core.MeterReading{
		MeterID: "m1", PropertyID: "p1",
		ReadingDate: "2025-03-05", BillingPeriod: "2025-01", ReadingValue: 105000,
	}); err != nil {
		t.Fatalf("january backfill: %v", err)
	}

	r, err := svc.AddReading(ctx, core.MeterReading{
		MeterID: "m1", PropertyID: "p1",
		ReadingDate: "2025-04-01", BillingPeriod: "2025-03", ReadingValue: 112000,
	})
	if err != nil {
		t.Fatalf("march reading: %v", err)
	}
	if r.Usage != 2000 {
		t.Fatalf("usage = %v, want 2000 from the february baseline", r.Usage)
	}
}

func TestAddReadingClampsRollover(t *testing.T) {
	svc := seededService(t, nil)
	ctx := context.Background()

	if _, err := svc.AddReading(ctx, core.MeterReading{
		MeterID: "m1", PropertyID: "p1",
		ReadingDate: "2025-01-31", BillingPeriod: "2025-01", ReadingValue: 999000,
	}); err != nil {
		t.Fatalf("first reading: %v", err)
	}

	// meter replaced and restarted lower
	r, err := svc.AddReading(ctx, core.MeterReading{
		MeterID: "m1", PropertyID: "p1",
		ReadingDate: "2025-02-28", BillingPeriod: "2025-02", ReadingValue: 1200,
	})
	if err != nil {
		t.Fatalf("rollover reading: %v", err)
	}
	if r.Usage != 0 {
		t.Fatalf("rollover usage should clamp to 0, got %v", r.Usage)
	}
}

func TestAddReadingRejectsUnknownProperty(t *testing.T) {
	svc := seededService(t, nil)
	_, err := svc.AddReading(context.Background(), core.MeterReading{
		MeterID: "m1", PropertyID: "ghost",
		ReadingDate: "2025-01-31", BillingPeriod: "2025-01", ReadingValue: 100,
	})
	if !errors.Is(err, core.ErrUnknownProperty) {
		t.Fatalf("expected ErrUnknownProperty, got %v", err)
	}
}

func TestAddPayment(t *testing.T) {
	svc := seededService(t, nil)
	ctx := context.Background()

	p, err := svc.AddPayment(ctx, core.Payment{
		PropertyID: "p1", Amount: 35, ReceivedDate: "2025-02-05", Notes: "Check #88",
	})
	if err != nil {
		t.Fatalf("add payment: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("payment should get an id")
	}

	if _, err := svc.AddPayment(ctx, core.Payment{
		PropertyID: "p1", Amount: -5, ReceivedDate: "2025-02-05",
	}); err == nil {
		t.Fatalf("negative amount must be rejected")
	}
}

func TestUpdateSettingsValidates(t *testing.T) {
	svc := seededService(t, nil)
	ctx := context.Background()

	bad := core.BillingSettings{FixedMonthlyFee: 20, Tier1Limit: 9000, Tier2Limit: 100}
	if err := svc.UpdateSettings(ctx, bad); err == nil {
		t.Fatalf("inverted tiers must be rejected")
	}

	good := core.BillingSettings{
		FixedMonthlyFee: 25, Tier1Limit: 5000, Tier1RatePerThousand: 3,
		Tier2Limit: 15000, Tier2RatePerThousand: 4.5, Tier3RatePerThousand: 6,
	}
	if err := svc.UpdateSettings(ctx, good); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	data, _ := svc.Get(ctx)
	if data.Settings.FixedMonthlyFee != 25 {
		t.Fatalf("settings not persisted: %+v", data.Settings)
	}
}

func TestUpdatePropertyAddress(t *testing.T) {
	svc := seededService(t, nil)
	ctx := context.Background()

	if err := svc.UpdatePropertyAddress(ctx, "p1", "42 Vista Way"); err != nil {
		t.Fatalf("update address: %v", err)
	}
	data, _ := svc.Get(ctx)
	if data.Properties[0].Address != "42 Vista Way" {
		t.Fatalf("address not persisted: %q", data.Properties[0].Address)
	}

	if err := svc.UpdatePropertyAddress(ctx, "ghost", "nowhere"); !errors.Is(err, core.ErrUnknownProperty) {
		t.Fatalf("expected ErrUnknownProperty, got %v", err)
	}
}

func TestUpdateReadingShiftsUsage(t *testing.T) {
	svc := seededService(t, nil)
	ctx := context.Background()

	if _, err := svc.AddReading(ctx, core.MeterReading{
		ID: "r1", MeterID: "m1", PropertyID: "p1",
		ReadingDate: "2025-01-31", BillingPeriod: "2025-01", ReadingValue: 100000,
	}); err != nil {
		t.Fatalf("first reading: %v", err)
	}
	if _, err := svc.AddReading(ctx, core.MeterReading{
		ID: "r2", MeterID: "m1", PropertyID: "p1",
		ReadingDate: "2025-02-28", BillingPeriod: "2025-02", ReadingValue: 104500,
	}); err != nil {
		t.Fatalf("second reading: %v", err)
	}

	// correcting a typo in the index shifts usage by the delta
	updated, err := svc.UpdateReading(ctx, "r2", "2025-02-27", 105000)
	if err != nil {
		t.Fatalf("update reading: %v", err)
	}
	if updated.Usage != 5000 || updated.RawUsage != 5000 {
		t.Fatalf("usage = %v raw = %v, want 5000", updated.Usage, updated.RawUsage)
	}
	if updated.ReadingDate != "2025-02-27" || updated.ReadingValue != 105000 {
		t.Fatalf("fields not applied: %+v", updated)
	}

	if _, err := svc.UpdateReading(ctx, "r2", "bad-date", 105000); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := svc.UpdateReading(ctx, "ghost", "2025-02-27", 105000); !errors.Is(err, core.ErrUnknownReading) {
		t.Fatalf("expected ErrUnknownReading, got %v", err)
	}
}

func TestDeleteReading(t *testing.T) {
	svc := seededService(t, nil)
	ctx := context.Background()

	if _, err := svc.AddReading(ctx, core.MeterReading{
		ID: "r1", MeterID: "m1", PropertyID: "p1",
		ReadingDate: "2025-01-31", BillingPeriod: "2025-01", ReadingValue: 100000,
	}); err != nil {
		t.Fatalf("add reading: %v", err)
	}

	if err := svc.DeleteReading(ctx, "r1"); err != nil {
		t.Fatalf("delete reading: %v", err)
	}
	data, _ := svc.Get(ctx)
	if len(data.Readings) != 0 {
		t.Fatalf("reading not removed: %+v", data.Readings)
	}

	if err := svc.DeleteReading(ctx, "r1"); !errors.Is(err, core.ErrUnknownReading) {
		t.Fatalf("expected ErrUnknownReading, got %v", err)
	}
}

func TestUpdatePayment(t *testing.T) {
	svc := seededService(t, nil)
	ctx := context.Background()

	if _, err := svc.AddPayment(ctx, core.Payment{
		ID: "pay1", PropertyID: "p1", Amount: 35, ReceivedDate: "2025-02-05", Notes: "Check #88",
	}); err != nil {
		t.Fatalf("add payment: %v", err)
	}

	updated, err := svc.UpdatePayment(ctx, "pay1", 40, "2025-02-06", "Check #89")
	if err != nil {
		t.Fatalf("update payment: %v", err)
	}
	if updated.Amount != 40 || updated.ReceivedDate != "2025-02-06" || updated.Notes != "Check #89" {
		t.Fatalf("fields not applied: %+v", updated)
	}

	if _, err := svc.UpdatePayment(ctx, "pay1", -1, "2025-02-06", ""); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.UpdatePayment(ctx, "ghost", 40, "2025-02-06", ""); !errors.Is(err, core.ErrUnknownPayment) {
		t.Fatalf("expected ErrUnknownPayment, got %v", err)
	}

	// the rejected edit must not stick
	data, _ := svc.Get(ctx)
	if data.Payments[0].Amount != 40 {
		t.Fatalf("failed edit leaked: %+v", data.Payments[0])
	}
}

func TestDeletePayment(t *testing.T) {
	svc := seededService(t, nil)
	ctx := context.Background()

	if _, err := svc.AddPayment(ctx, core.Payment{
		ID: "pay1", PropertyID: "p1", Amount: 35, ReceivedDate: "2025-02-05",
	}); err != nil {
		t.Fatalf("add payment: %v", err)
	}

	if err := svc.DeletePayment(ctx, "pay1"); err != nil {
		t.Fatalf("delete payment: %v", err)
	}
	data, _ := svc.Get(ctx)
	if len(data.Payments) != 0 {
		t.Fatalf("payment not removed: %+v", data.Payments)
	}

	if err := svc.DeletePayment(ctx, "pay1"); !errors.Is(err, core.ErrUnknownPayment) {
		t.Fatalf("expected ErrUnknownPayment, got %v", err)
	}
}

func TestCloseClosesPublisher(t *testing.T) {
	pub := &fakePublisher{}
	svc := seededService(t, pub)
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !pub.closed {
		t.Fatalf("publisher not closed")
	}
}
