package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seeall/facturation/internal/config"
	"github.com/seeall/facturation/internal/handlers"
	"github.com/seeall/facturation/internal/httpx"
	"github.com/seeall/facturation/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares
// applied. Everything behind it is synchronous: each request either
// completes its transaction or rolls back.
func New(db *gorm.DB, cfg config.Config, company config.Company, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Client endpoints
	clientSvc := services.NewClientService(db)
	ch := handlers.NewClientHandler(clientSvc)
	mux.HandleFunc("/clients", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			ch.List(w, r)
		case http.MethodPost:
			ch.Save(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	})
	mux.HandleFunc("/clients/delete", requirePost(ch.Delete))

	// Document endpoints (quotes and invoices share the surface; the kind
	// flag selects which)
	numbering := services.NewNumberingService(cfg.QuotePrefix, cfg.InvoicePrefix)
	docSvc := services.NewDocumentService(db, numbering)
	dh := handlers.NewDocumentHandler(docSvc, company, cfg.VATRate)
	mux.HandleFunc("/documents", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			dh.List(w, r)
		case http.MethodPost:
			dh.Save(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	})
	mux.HandleFunc("/documents/convert", requirePost(dh.Convert))
	mux.HandleFunc("/documents/delete", requirePost(dh.Delete))
	mux.HandleFunc("/documents/render", dh.RenderData)

	// Company constants for renderers
	mux.HandleFunc("/company", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"company":  company,
			"vat_rate": cfg.VATRate,
		})
	})

	return withRecover(withLogging(mux, log))
}

func requirePost(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		next(w, r)
	}
}

func withLogging(next http.Handler, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
