package billing

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"
)

func TestDecodeSaleLegacyDefaults(t *testing.T) {
	sale, err := DecodeSale([]byte(`{"id":"old","status":"PAID","installments":3,"totalPrice":90,"date":"2023-05-01T10:00:00Z"}`))
	require.NoError(t, err)
	require.Equal(t, SaleTypeSale, sale.Type)
	require.Equal(t, 3, sale.PaidInstallments)
	require.Equal(t, 0.0, sale.DownPayment)

	pending, err := DecodeSale([]byte(`{"id":"p","status":"PENDING","installments":0}`))
	require.NoError(t, err)
	require.Equal(t, 1, pending.Installments)
	require.Equal(t, 0, pending.PaidInstallments)

	kept, err := DecodeSale([]byte(`{"id":"k","type":"COMMISSION","status":"PAID","installments":2,"paidInstallments":1}`))
	require.NoError(t, err)
	require.Equal(t, SaleTypeCommission, kept.Type)
	require.Equal(t, 1, kept.PaidInstallments)

	_, err = DecodeSale([]byte(`{"id":`))
	require.Error(t, err)
}

func TestDecodeSaleReconcilesExplicitParcels(t *testing.T) {
	sale, err := DecodeSale([]byte(`{
		"id":"x","status":"PENDING","installments":5,"paidInstallments":0,
		"customInstallments":[
			{"id":"a","number":1,"dueDate":"2024-01-05T00:00:00Z","value":50,"status":"PAID","paidAt":"2024-01-04T00:00:00Z"},
			{"id":"b","number":2,"dueDate":"2024-02-05T00:00:00Z","value":50,"status":"PAID","paidAt":"2024-02-04T00:00:00Z"}
		]}`))
	require.NoError(t, err)
	require.Equal(t, StatusPaid, sale.Status)
	require.Equal(t, 2, sale.Installments)
	require.Equal(t, 2, sale.PaidInstallments)
}

func TestNormalizeClampsCounters(t *testing.T) {
	s := Normalize(Sale{Installments: 2, PaidInstallments: 9, DownPayment: -3})
	require.Equal(t, 2, s.PaidInstallments)
	require.Equal(t, 0.0, s.DownPayment)
	require.Equal(t, StatusPending, s.Status)
}

func TestDecodeSaleInKeepsMonthStepsAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	anchor := time.Date(2024, time.January, 31, 23, 59, 59, int(999*time.Millisecond), ny)
	sale := Normalize(Sale{
		ID:           "dst",
		TotalPrice:   300,
		Installments: 3,
		Status:       StatusPending,
		Date:         time.Date(2024, time.January, 10, 12, 0, 0, 0, ny),
		DueDate:      &anchor,
	})
	march, err := NewPeriod(2024, time.March, ny)
	require.NoError(t, err)
	require.Equal(t, 100.0, PendingInPeriod([]Sale{sale}, march))

	raw, err := json.Marshal(sale)
	require.NoError(t, err)
	stored, err := DecodeSaleIn(ny)(raw)
	require.NoError(t, err)
	require.Equal(t, 100.0, PendingInPeriod([]Sale{stored}, march))

	parcels := stored.Schedule().Expand()
	require.Len(t, parcels, 3)
	last := parcels[2].DueDate.In(ny)
	require.Equal(t, time.March, last.Month())
	require.Equal(t, 31, last.Day())
	require.Equal(t, ny, stored.DueDate.Location())
}

func TestSaleInMovesEveryTimestamp(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	paidAt := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	sale := Sale{
		Date: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
		CustomInstallments: []Installment{
			{ID: "a", Number: 1, DueDate: time.Date(2024, time.March, 20, 3, 0, 0, 0, time.UTC), PaidAt: &paidAt},
		},
	}
	local := sale.In(ny)
	require.Equal(t, ny, local.Date.Location())
	require.Equal(t, ny, local.CustomInstallments[0].DueDate.Location())
	require.Equal(t, ny, local.CustomInstallments[0].PaidAt.Location())
	require.True(t, local.CustomInstallments[0].PaidAt.Equal(paidAt))
	require.Equal(t, time.UTC, sale.CustomInstallments[0].PaidAt.Location())
	require.Equal(t, sale, sale.In(nil))
}
