package reports

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Kashan-amd/modis/internal/platform/httpx"
)

// Handler serves ledger report exports.
type Handler struct {
	logger  *slog.Logger
	builder *Builder
	pdf     *PDFExporter
}

// NewHandler builds a Handler instance. pdf may be nil when no Gotenberg
// endpoint is configured.
func NewHandler(logger *slog.Logger, builder *Builder, pdf *PDFExporter) *Handler {
	return &Handler{logger: logger, builder: builder, pdf: pdf}
}

// MountRoutes registers HTTP routes for the reports module.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/ledger", h.Ledger)
}

func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	report, err := h.builder.BuildLedger(r.Context())
	if err != nil {
		h.logger.Error("build ledger report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		httpx.JSON(w, http.StatusOK, report)
	case "csv":
		filename := fmt.Sprintf("ledger-%s.csv", time.Now().UTC().Format("20060102-150405"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if err := WriteLedgerCSV(w, report); err != nil {
			h.logger.Error("write ledger csv", slog.Any("error", err))
		}
	case "pdf":
		if h.pdf == nil {
			httpx.Problem(w, http.StatusServiceUnavailable, "Export Unavailable", "pdf rendering is not configured")
			return
		}
		data, err := h.pdf.RenderLedger(r.Context(), report)
		if err != nil {
			h.logger.Error("render ledger pdf", slog.Any("error", err))
			httpx.Problem(w, http.StatusBadGateway, "Export Failed", "pdf rendering failed")
			return
		}
		filename := fmt.Sprintf("ledger-%s.pdf", time.Now().UTC().Format("20060102-150405"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		_, _ = w.Write(data)
	default:
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "format must be json, csv or pdf")
	}
}
