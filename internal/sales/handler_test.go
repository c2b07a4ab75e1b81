package sales

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/bizledger/internal/billing"
	"github.com/bizledger/bizledger/internal/shared"
)

func newTestRouter(t *testing.T) (http.Handler, testEnv) {
	t.Helper()
	env := newTestService(t)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), env.svc)
	r := chi.NewRouter()
	r.Use(shared.RequireOwner)
	h.MountRoutes(r)
	return r, env
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(shared.OwnerHeader, "o1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSaleEndpoints(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/sales", `{
		"customerId": "c-ana",
		"items": [{"productId": "p-shampoo", "quantity": 2}],
		"paymentMethod": "PIX",
		"installments": 2,
		"dueDay": "2024-01-20",
		"generateParcels": true
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created billing.Sale
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created.CustomInstallments, 2)

	rec = do(t, h, http.MethodGet, "/sales/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view SaleView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotNil(t, view.Due)
	require.Equal(t, billing.DueOnTime, view.Due.Status)

	rec = do(t, h, http.MethodPost, "/sales/"+created.ID+"/parcels/"+created.CustomInstallments[0].ID+"/pay", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var paid billing.Sale
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paid))
	require.Equal(t, 1, paid.PaidInstallments)

	rec = do(t, h, http.MethodGet, "/sales/"+created.ID+"/schedule", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var lines []billing.ScheduleLine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
	require.Len(t, lines, 2)
	require.True(t, lines[0].Paid)
	require.True(t, lines[1].NextToPay)

	rec = do(t, h, http.MethodPost, "/sales/"+created.ID+"/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paid))
	require.Equal(t, billing.StatusPaid, paid.Status)

	rec = do(t, h, http.MethodGet, "/sales?tab=paid", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list shared.Page[SaleView]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	require.Equal(t, 1, list.Pagination.Total)

	rec = do(t, h, http.MethodDelete, "/sales/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/sales/"+created.ID, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaleEndpointErrors(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/sales?tab=archived", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/sales", `{"items":[{"productId":"p-shampoo","quantity":1}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")

	rec = do(t, h, http.MethodPost, "/sales", `{"paymentMethod":"PIX","bogus":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/sales/missing/pay-next", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/sales", nil)
	anon := httptest.NewRecorder()
	h.ServeHTTP(anon, req)
	require.Equal(t, http.StatusUnauthorized, anon.Code)
}

func TestSummaryAndPlanEndpoints(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/sales", `{"items":[{"productId":"p-brush","quantity":1}],"paymentMethod":"CARD","downPayment":50}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/sales/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sum billing.SalesSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	require.Equal(t, 1, sum.CountToday)
	require.Equal(t, 150.0, sum.TotalPending)

	rec = do(t, h, http.MethodPost, "/billing/plan", `{"totalPrice":100,"downPayment":10,"installments":3,"anchor":"2024-01-31T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var plan []billing.PlannedInstallment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	require.Len(t, plan, 3)
	require.Equal(t, 30.0, plan[0].Value)
	require.Equal(t, 29, plan[1].DueDate.Day())

	rec = do(t, h, http.MethodPost, "/billing/plan", `{"totalPrice":100,"installments":0,"anchor":"2024-01-31T00:00:00Z"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
