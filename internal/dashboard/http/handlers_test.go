package dashboardhttp

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/bizledger/internal/billing"
	"github.com/bizledger/bizledger/internal/dashboard"
	"github.com/bizledger/bizledger/internal/platform/httpx"
	"github.com/bizledger/bizledger/internal/shared"
)

type stubService struct {
	metrics dashboard.Metrics
	alerts  []billing.Alert
	sales   []billing.Sale
	err     error
	period  billing.Period
}

func (s *stubService) ParsePeriod(month, year string) (billing.Period, error) {
	if month == "13" {
		return billing.Period{}, httpx.ErrValidation
	}
	return billing.NewPeriod(2024, time.March, time.UTC)
}

func (s *stubService) Metrics(_ context.Context, _ string, p billing.Period) (dashboard.Metrics, error) {
	s.period = p
	return s.metrics, s.err
}

func (s *stubService) Alerts(context.Context, string) ([]billing.Alert, error) {
	return s.alerts, s.err
}

func (s *stubService) Report(_ context.Context, owner string, _ billing.Period) (dashboard.Report, error) {
	return dashboard.Report{Owner: owner, Metrics: s.metrics, Sales: s.sales}, s.err
}

type stubPDF struct{ calls int }

func (s *stubPDF) RenderDashboard(context.Context, dashboard.Metrics) ([]byte, error) {
	s.calls++
	return []byte("%PDF-1.7"), nil
}

func newRouter(svc DashboardService, pdf PDFService) http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, pdf, time.UTC)
	r := chi.NewRouter()
	r.Use(shared.RequireOwner)
	h.MountRoutes(r)
	return r
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(shared.OwnerHeader, "o1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDashboardEndpoint(t *testing.T) {
	svc := &stubService{metrics: dashboard.Metrics{PeriodMetrics: billing.PeriodMetrics{Period: "2024-03", Revenue: 10}}}
	r := newRouter(svc, nil)

	rec := get(r, "/dashboard?month=3&year=2024")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "2024-03", body["period"])
	require.Equal(t, 10.0, body["revenue"])

	rec = get(r, "/dashboard?month=13")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	svc.err = errors.New("load failed")
	rec = get(r, "/dashboard")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAlertsEndpoint(t *testing.T) {
	svc := &stubService{alerts: []billing.Alert{{SaleID: "s1", Overdue: true, DaysUntil: -3}}}
	rec := get(newRouter(svc, nil), "/dashboard/alerts")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count  int             `json:"count"`
		Alerts []billing.Alert `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	require.Equal(t, -3, body.Alerts[0].DaysUntil)
}

func TestExportCSV(t *testing.T) {
	svc := &stubService{
		metrics: dashboard.Metrics{PeriodMetrics: billing.PeriodMetrics{Period: "2024-03"}},
		sales:   []billing.Sale{{ID: "s1", Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)}},
	}
	rec := get(newRouter(svc, nil), "/dashboard/export.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "bizledger-2024-03.csv")

	reader := csv.NewReader(strings.NewReader(rec.Body.String()))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"Metric", "Value"}, records[0])
	require.Contains(t, rec.Body.String(), "Sale ID")
	require.Contains(t, rec.Body.String(), "Due Date,Customer")
}

func TestExportPDF(t *testing.T) {
	svc := &stubService{}
	rec := get(newRouter(svc, nil), "/dashboard/export.pdf")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	pdf := &stubPDF{}
	rec = get(newRouter(svc, pdf), "/dashboard/export.pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.Equal(t, "%PDF-1.7", rec.Body.String())
	require.Equal(t, 1, pdf.calls)
}

func TestExportsAreRateLimited(t *testing.T) {
	r := newRouter(&stubService{}, &stubPDF{})
	for i := 0; i < ExportsPerMinute; i++ {
		require.Equal(t, http.StatusOK, get(r, "/dashboard/export.csv").Code)
	}
	rec := get(r, "/dashboard/export.csv")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	require.Equal(t, http.StatusOK, get(r, "/dashboard").Code)
}
