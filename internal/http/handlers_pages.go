package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"waterworks/internal/core"
)

type activityRow struct {
	ID          string
	Date        string
	Kind        string
	Property    string
	Description string
	Amount      string
}

type balanceRow struct {
	PropertyID string
	Name       string
	Amount     string
	Status     string
}

type propertyOption struct {
	ID   string
	Name string
}

type meterOption struct {
	MeterID      string
	PropertyID   string
	PropertyName string
	Label        string
}

// recentActivityLimit caps the dashboard history; the CSV export carries the
// full ledger.
const recentActivityLimit = 50

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data, err := s.docs.Get(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Document load error", "error", err)
		http.Error(w, "failed to load document", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	view := struct {
		Activity      []activityRow
		Balances      []balanceRow
		Properties    []propertyOption
		Meters        []meterOption
		DefaultDate   string
		DefaultPeriod string
		Reminder      string
	}{
		DefaultDate:   core.Today(now),
		DefaultPeriod: core.DefaultReadingPeriod(now),
		Reminder:      billingReminder(now),
	}

	for _, item := range core.Activity(data, false) {
		if len(view.Activity) == recentActivityLimit {
			break
		}
		amount := ""
		if item.Type == core.ActivityPayment {
			amount = core.FormatCurrency(item.Amount)
		}
		view.Activity = append(view.Activity, activityRow{
			ID:          item.OriginalID,
			Date:        core.FormatDate(item.Date),
			Kind:        string(item.Type),
			Property:    item.PropertyName,
			Description: item.Description,
			Amount:      amount,
		})
	}

	for _, p := range data.Properties {
		view.Properties = append(view.Properties, propertyOption{ID: p.ID, Name: p.Name})
		view.Balances = append(view.Balances, balanceView(p, data))
		for _, m := range p.Meters {
			view.Meters = append(view.Meters, meterOption{
				MeterID:      m.ID,
				PropertyID:   p.ID,
				PropertyName: p.Name,
				Label:        m.Label,
			})
		}
	}

	s.render(w, r, "index.html", view)
}

// billingReminder returns the banner shown on days 1-5 of the month, when
// the previous month's readings are taken and invoices go out.
func billingReminder(now time.Time) string {
	if now.Day() > 5 {
		return ""
	}
	return fmt.Sprintf("It's billing time: review %s readings and send invoices.",
		core.FormatBillingPeriod(core.DefaultReadingPeriod(now)))
}

func balanceView(p core.Property, data *core.AppData) balanceRow {
	balance := core.PropertyBalance(p, data.Readings, data.Payments, data.Settings)
	status := "Due"
	if balance >= 0 {
		status = "Credit"
	}
	return balanceRow{
		PropertyID: p.ID,
		Name:       p.Name,
		Amount:     core.FormatCurrency(balance),
		Status:     status,
	}
}

type periodOption struct {
	Value    string
	Label    string
	Selected bool
}

type invoiceRow struct {
	Property        string
	Gallons         string
	FixedCharge     string
	Tier1Charge     string
	Tier2Charge     string
	Tier3Charge     string
	TotalAmount     string
	PreviousBalance string
	AmountDue       string
}

func (s *Server) handleBills(w http.ResponseWriter, r *http.Request) {
	data, err := s.docs.Get(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Document load error", "error", err)
		http.Error(w, "failed to load document", http.StatusInternalServerError)
		return
	}

	period := periodParam(r, time.Now())
	view := struct {
		Period        string
		PeriodLabel   string
		Periods       []periodOption
		Invoices      []invoiceRow
		ArchivedCount int
	}{
		Period:        period,
		PeriodLabel:   core.FormatBillingPeriod(period),
		Periods:       periodOptions(data, period),
		ArchivedCount: len(data.Invoices),
	}

	for _, inv := range s.invoicesFor(data, period) {
		view.Invoices = append(view.Invoices, invoiceRow{
			Property:        data.PropertyName(inv.PropertyID),
			Gallons:         core.FormatGallons(inv.TotalGallons),
			FixedCharge:     core.FormatCurrency(inv.FixedCharge),
			Tier1Charge:     core.FormatCurrency(inv.Tier1Charge),
			Tier2Charge:     core.FormatCurrency(inv.Tier2Charge),
			Tier3Charge:     core.FormatCurrency(inv.Tier3Charge),
			TotalAmount:     core.FormatCurrency(inv.TotalAmount),
			PreviousBalance: core.FormatCurrency(inv.PreviousBalance),
			AmountDue:       core.FormatCurrency(inv.AmountDue),
		})
	}

	s.render(w, r, "bills.html", view)
}

// periodOptions lists every billing period seen in the readings, newest
// first, always including the selected one.
func periodOptions(data *core.AppData, selected string) []periodOption {
	seen := map[string]bool{selected: true}
	periods := []string{selected}
	for _, reading := range data.Readings {
		if reading.BillingPeriod == "" || seen[reading.BillingPeriod] {
			continue
		}
		seen[reading.BillingPeriod] = true
		periods = append(periods, reading.BillingPeriod)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))

	options := make([]periodOption, 0, len(periods))
	for _, p := range periods {
		options = append(options, periodOption{
			Value:    p,
			Label:    core.FormatBillingPeriod(p),
			Selected: p == selected,
		})
	}
	return options
}

type usageRow struct {
	Period  string
	Gallons string
}

type propertyView struct {
	ID      string
	Name    string
	Address string
	Balance string
	Status  string
	Meters  []core.Meter
	Usage   []usageRow
}

func (s *Server) handlePropertiesPage(w http.ResponseWriter, r *http.Request) {
	data, err := s.docs.Get(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Document load error", "error", err)
		http.Error(w, "failed to load document", http.StatusInternalServerError)
		return
	}

	view := struct {
		Properties []propertyView
	}{}
	for _, p := range data.Properties {
		row := balanceView(p, data)
		pv := propertyView{
			ID:      p.ID,
			Name:    p.Name,
			Address: p.Address,
			Balance: row.Amount,
			Status:  row.Status,
			Meters:  p.Meters,
		}
		for _, u := range core.LastSixMonthsUsage(p.ID, data.Readings) {
			pv.Usage = append(pv.Usage, usageRow{
				Period:  core.FormatShortPeriod(u.Period),
				Gallons: core.FormatGallons(u.Usage),
			})
		}
		view.Properties = append(view.Properties, pv)
	}

	s.render(w, r, "properties.html", view)
}

// dataSummary gives operators a sanity check of what the document holds.
// Archived invoices are legacy rows surfaced only as a count; the app
// recomputes invoices on demand.
type dataSummary struct {
	Properties       int
	Readings         int
	Payments         int
	ArchivedInvoices int
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		data, err := s.docs.Get(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Document load error", "error", err)
			http.Error(w, "failed to load document", http.StatusInternalServerError)
			return
		}
		s.render(w, r, "settings.html", struct {
			Settings core.BillingSettings
			Summary  dataSummary
		}{
			Settings: data.Settings,
			Summary: dataSummary{
				Properties:       len(data.Properties),
				Readings:         len(data.Readings),
				Payments:         len(data.Payments),
				ArchivedInvoices: len(data.Invoices),
			},
		})

	case http.MethodPost:
		s.handleUpdateSettings(w, r)

	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	current, err := s.docs.Get(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Document load error", "error", err)
		http.Error(w, "failed to load document", http.StatusInternalServerError)
		return
	}

	// Tier3Limit is carried through unchanged: tier 3 is unbounded and the
	// field exists only for document compatibility.
	settings := core.BillingSettings{Tier3Limit: current.Settings.Tier3Limit}
	fields := []struct {
		name string
		dst  *float64
	}{
		{"fixedMonthlyFee", &settings.FixedMonthlyFee},
		{"tier1Limit", &settings.Tier1Limit},
		{"tier1Rate", &settings.Tier1RatePerThousand},
		{"tier2Limit", &settings.Tier2Limit},
		{"tier2Rate", &settings.Tier2RatePerThousand},
		{"tier3Rate", &settings.Tier3RatePerThousand},
	}
	for _, f := range fields {
		v, err := floatField(r, f.name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		*f.dst = v
	}

	if err := s.docs.UpdateSettings(r.Context(), settings); err != nil {
		slog.ErrorContext(r.Context(), "Settings update error", "error", err)
		http.Error(w, err.Error(), mutationStatus(err))
		return
	}

	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

func (s *Server) handleCreateReading(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	value, err := floatField(r, "readingValue")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	reading := core.MeterReading{
		MeterID:       sanitizeInput(r.Form.Get("meterId")),
		PropertyID:    sanitizeInput(r.Form.Get("propertyId")),
		ReadingDate:   sanitizeInput(r.Form.Get("readingDate")),
		BillingPeriod: sanitizeInput(r.Form.Get("billingPeriod")),
		ReadingValue:  value,
	}

	if _, err := s.docs.AddReading(r.Context(), reading); err != nil {
		slog.ErrorContext(r.Context(), "Reading create error", "error", err, "property_id", reading.PropertyID)
		http.Error(w, err.Error(), mutationStatus(err))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	amount, err := floatField(r, "amount")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payment := core.Payment{
		PropertyID:   sanitizeInput(r.Form.Get("propertyId")),
		Amount:       amount,
		ReceivedDate: sanitizeInput(r.Form.Get("receivedDate")),
		Notes:        sanitizeInput(r.Form.Get("notes")),
	}

	if _, err := s.docs.AddPayment(r.Context(), payment); err != nil {
		slog.ErrorContext(r.Context(), "Payment create error", "error", err, "property_id", payment.PropertyID)
		http.Error(w, err.Error(), mutationStatus(err))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleEditActivity renders the edit form for one recorded reading or
// payment, reached from the dashboard history.
func (s *Server) handleEditActivity(w http.ResponseWriter, r *http.Request) {
	data, err := s.docs.Get(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Document load error", "error", err)
		http.Error(w, "failed to load document", http.StatusInternalServerError)
		return
	}

	id := sanitizeInput(r.URL.Query().Get("id"))
	view := struct {
		IsReading    bool
		ID           string
		PropertyName string
		Date         string
		ReadingValue string
		Amount       string
		Notes        string
	}{ID: id}

	switch r.URL.Query().Get("type") {
	case "reading":
		for _, reading := range data.Readings {
			if reading.ID != id {
				continue
			}
			view.IsReading = true
			view.PropertyName = data.PropertyName(reading.PropertyID)
			view.Date = reading.ReadingDate
			view.ReadingValue = strconv.FormatFloat(reading.ReadingValue, 'f', -1, 64)
			s.render(w, r, "edit.html", view)
			return
		}
	case "payment":
		for _, payment := range data.Payments {
			if payment.ID != id {
				continue
			}
			view.PropertyName = data.PropertyName(payment.PropertyID)
			view.Date = payment.ReceivedDate
			view.Amount = strconv.FormatFloat(payment.Amount, 'f', -1, 64)
			view.Notes = payment.Notes
			s.render(w, r, "edit.html", view)
			return
		}
	}
	http.NotFound(w, r)
}

func (s *Server) handleUpdateReading(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	value, err := floatField(r, "readingValue")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := sanitizeInput(r.Form.Get("id"))
	date := sanitizeInput(r.Form.Get("readingDate"))

	if _, err := s.docs.UpdateReading(r.Context(), id, date, value); err != nil {
		slog.ErrorContext(r.Context(), "Reading update error", "error", err, "reading_id", id)
		http.Error(w, err.Error(), mutationStatus(err))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDeleteReading(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	id := sanitizeInput(r.Form.Get("id"))
	if err := s.docs.DeleteReading(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Reading delete error", "error", err, "reading_id", id)
		http.Error(w, err.Error(), mutationStatus(err))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	amount, err := floatField(r, "amount")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := sanitizeInput(r.Form.Get("id"))
	date := sanitizeInput(r.Form.Get("receivedDate"))
	notes := sanitizeInput(r.Form.Get("notes"))

	if _, err := s.docs.UpdatePayment(r.Context(), id, amount, date, notes); err != nil {
		slog.ErrorContext(r.Context(), "Payment update error", "error", err, "payment_id", id)
		http.Error(w, err.Error(), mutationStatus(err))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	id := sanitizeInput(r.Form.Get("id"))
	if err := s.docs.DeletePayment(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Payment delete error", "error", err, "payment_id", id)
		http.Error(w, err.Error(), mutationStatus(err))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleUpdateAddress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	propertyID := sanitizeInput(r.Form.Get("propertyId"))
	address := sanitizeInput(r.Form.Get("address"))

	if err := s.docs.UpdatePropertyAddress(r.Context(), propertyID, address); err != nil {
		slog.ErrorContext(r.Context(), "Address update error", "error", err, "property_id", propertyID)
		http.Error(w, err.Error(), mutationStatus(err))
		return
	}

	http.Redirect(w, r, "/properties", http.StatusSeeOther)
}

// mutationStatus maps document mutation failures to HTTP statuses:
// validation problems are the client's fault, everything else is ours.
func mutationStatus(err error) int {
	if errors.Is(err, core.ErrUnknownReading) || errors.Is(err, core.ErrUnknownPayment) {
		return http.StatusNotFound
	}
	for _, sentinel := range []error{
		core.ErrUnknownProperty,
		core.ErrInvalidDate,
		core.ErrInvalidPeriod,
		core.ErrInvalidAmount,
		core.ErrEmptyID,
		core.ErrEmptyName,
		core.ErrTierOrder,
	} {
		if errors.Is(err, sentinel) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}
