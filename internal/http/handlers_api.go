package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"waterworks/internal/core"
	"waterworks/internal/export"
	"waterworks/internal/store"
)

// maxDocumentBytes bounds POST /api/data bodies. The document is a single
// household ledger; anything near this size is garbage.
const maxDocumentBytes = 10 << 20

// handleData serves the whole document as JSON and accepts a full
// replacement, mirroring the import/export workflow of the settings page.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		data, err := s.docs.Get(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Document load error", "error", err)
			http.Error(w, "failed to load document", http.StatusInternalServerError)
			return
		}
		body, err := store.Encode(data)
		if err != nil {
			slog.ErrorContext(r.Context(), "Document encode error", "error", err)
			http.Error(w, "failed to encode document", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)

	case http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		data, err := store.Decode(body)
		if err != nil {
			http.Error(w, "invalid document", http.StatusBadRequest)
			return
		}
		if err := s.docs.Replace(r.Context(), data); err != nil {
			slog.ErrorContext(r.Context(), "Document save error", "error", err)
			http.Error(w, "failed to save document", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})

	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleInvoices returns the derived invoices for ?period=YYYY-MM.
func (s *Server) handleInvoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	data, err := s.docs.Get(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Document load error", "error", err)
		http.Error(w, "failed to load document", http.StatusInternalServerError)
		return
	}

	period := periodParam(r, time.Now())
	invoices := s.invoicesFor(data, period)
	if invoices == nil {
		invoices = []core.Invoice{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

type balanceEntry struct {
	PropertyID   string  `json:"propertyId"`
	PropertyName string  `json:"propertyName"`
	Balance      float64 `json:"balance"`
	Status       string  `json:"status"`
}

// handleBalances returns the running balance of every property. Positive or
// zero balances are credits, negative balances are amounts due.
func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	data, err := s.docs.Get(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Document load error", "error", err)
		http.Error(w, "failed to load document", http.StatusInternalServerError)
		return
	}

	entries := make([]balanceEntry, 0, len(data.Properties))
	for _, p := range data.Properties {
		balance := core.PropertyBalance(p, data.Readings, data.Payments, data.Settings)
		status := "due"
		if balance >= 0 {
			status = "credit"
		}
		entries = append(entries, balanceEntry{
			PropertyID:   p.ID,
			PropertyName: p.Name,
			Balance:      balance,
			Status:       status,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleActivityExport streams the full activity ledger as CSV.
func (s *Server) handleActivityExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.docs.Get(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Document load error", "error", err)
		http.Error(w, "failed to load document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="activity.csv"`)
	_, _ = w.Write(export.ActivityCSV(data))
}

// handleInvoicesExport streams one period's derived invoices as CSV.
func (s *Server) handleInvoicesExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.docs.Get(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Document load error", "error", err)
		http.Error(w, "failed to load document", http.StatusInternalServerError)
		return
	}

	period := periodParam(r, time.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="invoices-%s.csv"`, period))
	_, _ = w.Write(export.InvoicesCSV(data, s.invoicesFor(data, period)))
}

// handleInvoicePrint renders the print view, one page per invoice. An
// optional ?property= narrows the output to a single household.
func (s *Server) handleInvoicePrint(w http.ResponseWriter, r *http.Request) {
	data, err := s.docs.Get(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Document load error", "error", err)
		http.Error(w, "failed to load document", http.StatusInternalServerError)
		return
	}

	period := periodParam(r, time.Now())
	invoices := s.invoicesFor(data, period)
	if propertyID := strings.TrimSpace(r.URL.Query().Get("property")); propertyID != "" {
		var filtered []core.Invoice
		for _, inv := range invoices {
			if inv.PropertyID == propertyID {
				filtered = append(filtered, inv)
			}
		}
		invoices = filtered
	}

	body, err := export.InvoicePrintHTML(data, period, invoices)
	if err != nil {
		slog.ErrorContext(r.Context(), "Invoice print error", "error", err, "period", period)
		http.Error(w, "failed to render invoices", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}
