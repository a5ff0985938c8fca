package memory

import (
	"context"
	"testing"

	"waterworks/internal/core"
)

func TestLoadStartsEmpty(t *testing.T) {
	s := New()
	data, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if data.Properties == nil || len(data.Properties) != 0 {
		t.Fatalf("expected empty non-nil document, got %+v", data)
	}
}

func TestSaveIsolatesCallers(t *testing.T) {
	s := New()
	ctx := context.Background()

	original := &core.AppData{
		Properties: []core.Property{{ID: "p1", Name: "Hilltop"}},
		Readings:   []core.MeterReading{},
		Payments:   []core.Payment{},
		Invoices:   []core.Invoice{},
		Neighbors:  []core.Neighbor{},
	}
	if err := s.Save(ctx, original); err != nil {
		t.Fatalf("save: %v", err)
	}

	// mutating the caller's copy must not leak into the store
	original.Properties[0].Name = "Mutated"

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Properties[0].Name != "Hilltop" {
		t.Fatalf("store shares memory with caller: %q", loaded.Properties[0].Name)
	}

	// and mutating a loaded copy must not leak back either
	loaded.Properties[0].Name = "Mutated again"
	loaded2, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded2.Properties[0].Name != "Hilltop" {
		t.Fatalf("loaded copies share memory: %q", loaded2.Properties[0].Name)
	}
}
