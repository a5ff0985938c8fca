// Package store defines the document-store port and the JSON codec shared
// by every backend. The application state is one JSON document, read and
// written wholesale; a save replaces the full document and the last writer
// wins.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"waterworks/internal/core"
)

// DocumentStore is the outbound port for document persistence.
type DocumentStore interface {
	// Load fetches the entire document.
	Load(ctx context.Context) (*core.AppData, error)

	// Save overwrites the entire document.
	Save(ctx context.Context, data *core.AppData) error
}

// Encode marshals the document in the persisted wire format: 2-space
// indentation, struct field order. Loading a document and saving it
// unchanged reproduces the same bytes up to key order.
func Encode(data *core.AppData) ([]byte, error) {
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return body, nil
}

// Decode unmarshals a persisted document.
func Decode(body []byte) (*core.AppData, error) {
	var data core.AppData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &data, nil
}

// Clone deep-copies a document through the codec, so callers can hand out
// copies without sharing slices.
func Clone(data *core.AppData) (*core.AppData, error) {
	body, err := Encode(data)
	if err != nil {
		return nil, err
	}
	return Decode(body)
}

// Empty returns a fresh document with non-nil collections, the shape a new
// installation starts from.
func Empty() *core.AppData {
	return &core.AppData{
		Properties: []core.Property{},
		Readings:   []core.MeterReading{},
		Payments:   []core.Payment{},
		Invoices:   []core.Invoice{},
		Neighbors:  []core.Neighbor{},
	}
}
