package dashboardhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bizledger/bizledger/internal/billing"
	"github.com/bizledger/bizledger/internal/dashboard"
	"github.com/bizledger/bizledger/internal/dashboard/export"
	"github.com/bizledger/bizledger/internal/platform/httpx"
	"github.com/bizledger/bizledger/internal/shared"
)

const requestTimeout = 5 * time.Second

// DashboardService defines the data contract used by the handler.
type DashboardService interface {
	ParsePeriod(month, year string) (billing.Period, error)
	Metrics(ctx context.Context, owner string, period billing.Period) (dashboard.Metrics, error)
	Alerts(ctx context.Context, owner string) ([]billing.Alert, error)
	Report(ctx context.Context, owner string, period billing.Period) (dashboard.Report, error)
}

// PDFService renders dashboard content to PDF bytes.
type PDFService interface {
	RenderDashboard(ctx context.Context, m dashboard.Metrics) ([]byte, error)
}

// Handler coordinates HTTP requests for the dashboard.
type Handler struct {
	logger   *slog.Logger
	service  DashboardService
	pdf      PDFService
	location *time.Location
	csvPool  sync.Pool
}

// NewHandler constructs the dashboard HTTP handler. pdf may be nil, which
// disables the PDF export.
func NewHandler(logger *slog.Logger, service DashboardService, pdf PDFService, loc *time.Location) *Handler {
	h := &Handler{logger: logger, service: service, pdf: pdf, location: loc}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	period, err := h.service.ParsePeriod(r.URL.Query().Get("month"), r.URL.Query().Get("year"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	m, err := h.service.Metrics(ctx, owner, period)
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	alerts, err := h.service.Alerts(ctx, owner)
	if err != nil {
		h.handleServerError(w, "load alerts", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	period, err := h.service.ParsePeriod(r.URL.Query().Get("month"), r.URL.Query().Get("year"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.service.Report(ctx, owner, period)
	if err != nil {
		h.handleServerError(w, "load report", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteSummaryCSV(buf, report.Metrics); err != nil {
		h.handleServerError(w, "write summary csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteSalesCSV(buf, report.Sales, h.location); err != nil {
		h.handleServerError(w, "write sales csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteAlertsCSV(buf, report.Metrics.Alerts, h.location); err != nil {
		h.handleServerError(w, "write alerts csv", err)
		return
	}

	filename := fmt.Sprintf("bizledger-%s.csv", period)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		h.handleServerError(w, "pdf exporter", errors.New("pdf exporter not configured"))
		return
	}
	owner, _ := shared.OwnerFromContext(r.Context())
	period, err := h.service.ParsePeriod(r.URL.Query().Get("month"), r.URL.Query().Get("year"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	// Rendering goes through Chromium, so it gets a longer budget.
	ctx, cancel := context.WithTimeout(r.Context(), 6*requestTimeout)
	defer cancel()

	m, err := h.service.Metrics(ctx, owner, period)
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}
	pdfBytes, err := h.pdf.RenderDashboard(ctx, m)
	if err != nil {
		h.handleServerError(w, "render pdf", err)
		return
	}

	filename := fmt.Sprintf("bizledger-%s.pdf", period)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(pdfBytes); err != nil {
		h.logError("stream pdf", err)
	}
}

func (h *Handler) handleServerError(w http.ResponseWriter, op string, err error) {
	h.logError(op, err)
	httpx.RespondError(w, err)
}

func (h *Handler) logError(op string, err error) {
	if h.logger == nil {
		return
	}
	h.logger.Error("dashboard handler error", slog.String("op", op), slog.Any("error", err))
}
