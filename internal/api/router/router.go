package router

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/malyjan/reservanto-reports/internal/http/middleware"
	"github.com/malyjan/reservanto-reports/internal/pipeline"
	"github.com/malyjan/reservanto-reports/pkg/logging"
)

// Runner triggers one report pipeline run.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	Runner          Runner
	AdminAuthSecret string
	MetricsHandler  http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		admin.Post("/admin/run", runHandler(cfg))
	})

	return r
}

func runHandler(cfg *Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Runner == nil {
			http.Error(w, "pipeline not configured", http.StatusServiceUnavailable)
			return
		}
		result, err := cfg.Runner.Run(r.Context())
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Error("manual run failed", "error", err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"run_id":         result.RunID,
			"spreadsheet_id": result.SpreadsheetID,
			"cells_written":  result.CellsWritten,
			"report_rows":    result.ReportRows,
			"voucher_skips":  result.VoucherSkips,
		})
	}
}
