// Package http serves the account-tracking pages, the document API and the
// CSV/print exports.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"waterworks/internal/cache"
	"waterworks/internal/core"
	"waterworks/internal/log"
	"waterworks/internal/services"
	appweb "waterworks/web"
)

type Server struct {
	http.Server
	docs      *services.DocumentService
	templates *template.Template

	rateLimiter *rateLimiter

	// Derived invoices are cached per document revision and period, so any
	// edit invalidates naturally via the revision bump.
	invoiceCache *cache.LRUCache[[]core.Invoice]
	caches       *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, docs *services.DocumentService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		docs:         docs,
		rateLimiter:  newRateLimiter(),
		invoiceCache: cache.NewLRUCache[[]core.Invoice](100, 5*time.Minute),
		caches:       cache.NewManager(),
	}
	s.caches.Register(s.invoiceCache)
	s.caches.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	// Pages
	mux.HandleFunc("/", s.withSecurityHeaders(s.handleDashboard))
	mux.HandleFunc("/bills", s.withSecurityHeaders(s.handleBills))
	mux.HandleFunc("/properties", s.withSecurityHeaders(s.handlePropertiesPage))
	mux.HandleFunc("/settings", s.withSecurityHeaders(s.handleSettings))
	mux.HandleFunc("/activity/edit", s.withSecurityHeaders(s.handleEditActivity))

	// Form submissions
	mux.HandleFunc("/readings", s.withSecurityHeaders(s.handleCreateReading))
	mux.HandleFunc("/readings/update", s.withSecurityHeaders(s.handleUpdateReading))
	mux.HandleFunc("/readings/delete", s.withSecurityHeaders(s.handleDeleteReading))
	mux.HandleFunc("/payments", s.withSecurityHeaders(s.handleCreatePayment))
	mux.HandleFunc("/payments/update", s.withSecurityHeaders(s.handleUpdatePayment))
	mux.HandleFunc("/payments/delete", s.withSecurityHeaders(s.handleDeletePayment))
	mux.HandleFunc("/properties/address", s.withSecurityHeaders(s.handleUpdateAddress))

	// JSON document API
	mux.HandleFunc("/api/data", s.withSecurityHeaders(s.handleData))
	mux.HandleFunc("/api/invoices", s.withSecurityHeaders(s.handleInvoices))
	mux.HandleFunc("/api/balances", s.withSecurityHeaders(s.handleBalances))

	// Exports
	mux.HandleFunc("/export/activity.csv", s.withSecurityHeaders(s.handleActivityExport))
	mux.HandleFunc("/export/invoices.csv", s.withSecurityHeaders(s.handleInvoicesExport))
	mux.HandleFunc("/invoices/print", s.withSecurityHeaders(s.handleInvoicePrint))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.caches != nil {
			s.caches.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := clientAddr(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		// Rate limit mutating requests only; page loads stay cheap.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// invoicesFor derives the invoices of one billing period, cached per
// document revision.
func (s *Server) invoicesFor(data *core.AppData, period string) []core.Invoice {
	key := fmt.Sprintf("%d:%s", s.docs.Revision(), period)
	if cached, found := s.invoiceCache.Get(key); found {
		return cached
	}

	invoices := core.InvoicesForPeriod(data, period, core.Today(time.Now()))
	s.invoiceCache.Set(key, invoices)
	return invoices
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err, log.FieldTemplate, name)
	}
}
