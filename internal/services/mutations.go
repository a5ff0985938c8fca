package services

import (
	"context"
	"fmt"

	"waterworks/internal/core"
)

// AddReading validates and appends a meter reading, computing usage from the
// previous reading on the same meter when one exists.
func (s *DocumentService) AddReading(ctx context.Context, reading core.MeterReading) (core.MeterReading, error) {
	if reading.ID == "" {
		reading.ID = core.NewID()
	}
	if err := reading.Validate(); err != nil {
		return core.MeterReading{}, fmt.Errorf("invalid reading: %w", err)
	}

	err := s.Update(ctx, func(data *core.AppData) error {
		if data.PropertyByID(reading.PropertyID) == nil {
			return fmt.Errorf("property %s: %w", reading.PropertyID, core.ErrUnknownProperty)
		}

		// usage derives from the meter's latest reading by billing period; a
		// meter with no history has a baseline of 0 and bills the full index.
		var previousValue float64
		var previous *core.MeterReading
		for i := range data.Readings {
			r := &data.Readings[i]
			if r.MeterID != reading.MeterID {
				continue
			}
			if previous == nil || r.BillingPeriod > previous.BillingPeriod {
				previous = r
			}
		}
		if previous != nil {
			previousValue = previous.ReadingValue
		}
		raw := reading.ReadingValue - previousValue
		if raw < 0 {
			raw = 0 // meter rollover or replacement
		}
		reading.RawUsage = raw
		reading.Usage = raw

		data.Readings = append(data.Readings, reading)
		return nil
	})
	if err != nil {
		return core.MeterReading{}, err
	}
	return reading, nil
}

// AddPayment validates and appends a payment.
func (s *DocumentService) AddPayment(ctx context.Context, payment core.Payment) (core.Payment, error) {
	if payment.ID == "" {
		payment.ID = core.NewID()
	}
	if err := payment.Validate(); err != nil {
		return core.Payment{}, fmt.Errorf("invalid payment: %w", err)
	}

	err := s.Update(ctx, func(data *core.AppData) error {
		if data.PropertyByID(payment.PropertyID) == nil {
			return fmt.Errorf("property %s: %w", payment.PropertyID, core.ErrUnknownProperty)
		}
		data.Payments = append(data.Payments, payment)
		return nil
	})
	if err != nil {
		return core.Payment{}, err
	}
	return payment, nil
}

// UpdateReading edits the date and meter index of a recorded reading. The
// reading keeps its baseline, so usage shifts by the index delta.
func (s *DocumentService) UpdateReading(ctx context.Context, id, readingDate string, readingValue float64) (core.MeterReading, error) {
	if !core.ValidDate(readingDate) {
		return core.MeterReading{}, fmt.Errorf("reading %s: %w", id, core.ErrInvalidDate)
	}

	var updated core.MeterReading
	err := s.Update(ctx, func(data *core.AppData) error {
		r := readingByID(data, id)
		if r == nil {
			return fmt.Errorf("reading %s: %w", id, core.ErrUnknownReading)
		}
		delta := readingValue - r.ReadingValue
		r.ReadingDate = readingDate
		r.ReadingValue = readingValue
		r.RawUsage += delta
		r.Usage += delta
		updated = *r
		return nil
	})
	if err != nil {
		return core.MeterReading{}, err
	}
	return updated, nil
}

// DeleteReading removes a recorded reading. Later readings on the meter keep
// the usage they were logged with.
func (s *DocumentService) DeleteReading(ctx context.Context, id string) error {
	return s.Update(ctx, func(data *core.AppData) error {
		for i := range data.Readings {
			if data.Readings[i].ID == id {
				data.Readings = append(data.Readings[:i], data.Readings[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("reading %s: %w", id, core.ErrUnknownReading)
	})
}

// UpdatePayment edits the amount, date and notes of a recorded payment.
func (s *DocumentService) UpdatePayment(ctx context.Context, id string, amount float64, receivedDate, notes string) (core.Payment, error) {
	var updated core.Payment
	err := s.Update(ctx, func(data *core.AppData) error {
		var p *core.Payment
		for i := range data.Payments {
			if data.Payments[i].ID == id {
				p = &data.Payments[i]
				break
			}
		}
		if p == nil {
			return fmt.Errorf("payment %s: %w", id, core.ErrUnknownPayment)
		}
		next := *p
		next.Amount = amount
		next.ReceivedDate = receivedDate
		next.Notes = notes
		if err := next.Validate(); err != nil {
			return fmt.Errorf("invalid payment: %w", err)
		}
		*p = next
		updated = next
		return nil
	})
	if err != nil {
		return core.Payment{}, err
	}
	return updated, nil
}

// DeletePayment removes a recorded payment.
func (s *DocumentService) DeletePayment(ctx context.Context, id string) error {
	return s.Update(ctx, func(data *core.AppData) error {
		for i := range data.Payments {
			if data.Payments[i].ID == id {
				data.Payments = append(data.Payments[:i], data.Payments[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("payment %s: %w", id, core.ErrUnknownPayment)
	})
}

func readingByID(data *core.AppData, id string) *core.MeterReading {
	for i := range data.Readings {
		if data.Readings[i].ID == id {
			return &data.Readings[i]
		}
	}
	return nil
}

// UpdateSettings replaces the billing settings.
func (s *DocumentService) UpdateSettings(ctx context.Context, settings core.BillingSettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return s.Update(ctx, func(data *core.AppData) error {
		data.Settings = settings
		return nil
	})
}

// UpdatePropertyAddress sets the mailing address of one property.
func (s *DocumentService) UpdatePropertyAddress(ctx context.Context, propertyID, address string) error {
	return s.Update(ctx, func(data *core.AppData) error {
		p := data.PropertyByID(propertyID)
		if p == nil {
			return fmt.Errorf("property %s: %w", propertyID, core.ErrUnknownProperty)
		}
		p.Address = address
		return nil
	})
}
