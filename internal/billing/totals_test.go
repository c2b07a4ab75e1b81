package billing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeSaleTotals(t *testing.T) {
	items := []SaleItem{
		NewSaleItem("p1", "Shampoo", 2, 100, 150),
		NewSaleItem("p2", "Brush", 1, 100, 200),
	}
	totals := ComputeSaleTotals(items)
	require.InDelta(t, 300, totals.TotalCost, 0.0001)
	require.InDelta(t, 500, totals.TotalPrice, 0.0001)
	require.InDelta(t, 200, totals.TotalProfit, 0.0001)
	require.InDelta(t, 40, totals.ProfitMargin, 0.0001)
}

func TestComputeSaleTotalsZeroPrice(t *testing.T) {
	totals := ComputeSaleTotals([]SaleItem{NewSaleItem("p1", "Gift", 1, 10, 0)})
	require.Equal(t, 0.0, totals.ProfitMargin)
	require.InDelta(t, -10, totals.TotalProfit, 0.0001)

	empty := ComputeSaleTotals(nil)
	require.Equal(t, Totals{}, empty)
}

func TestCommissionTotals(t *testing.T) {
	totals := TotalsFor(SaleTypeCommission, nil, 250)
	require.Equal(t, 0.0, totals.TotalCost)
	require.Equal(t, 250.0, totals.TotalPrice)
	require.Equal(t, 250.0, totals.TotalProfit)
	require.Equal(t, 100.0, totals.ProfitMargin)

	sale := Sale{Type: SaleTypeCommission, Items: []SaleItem{NewCommissionItem("Referral", 250)}}
	totals.Apply(&sale)
	require.Equal(t, totals, RecomputeTotals(sale))
}

func TestTotalsRoundTrip(t *testing.T) {
	items := []SaleItem{NewSaleItem("p1", "Cream", 3, 12.5, 19.9)}
	var sale Sale
	sale.Items = items
	ComputeSaleTotals(items).Apply(&sale)
	require.Equal(t, ComputeSaleTotals(items), RecomputeTotals(sale))
}

func TestSplitEvenly(t *testing.T) {
	require.Equal(t, []float64{33.33, 33.33, 33.34}, SplitEvenly(100, 3))
	require.Equal(t, []float64{0.01, 0.01, 0.03}, SplitEvenly(0.05, 3))
	require.Equal(t, []float64{10}, SplitEvenly(10, 0))
}

func TestRoundCents(t *testing.T) {
	require.Equal(t, 1.01, RoundCents(1.005000001))
	require.Equal(t, -2.5, RoundCents(-2.499999))
	require.Equal(t, 0.0, RoundCents(0.004))
}

func TestSumAvoidsFloatDrift(t *testing.T) {
	var s Sum
	for i := 0; i < 10; i++ {
		s.Add(0.1)
	}
	s.Add(0.2)
	s.Sub(0.1)
	require.Equal(t, 1.1, s.Cents())

	var parts Sum
	for _, v := range SplitEvenly(1000.01, 7) {
		parts.Add(v)
	}
	require.Equal(t, 1000.01, parts.Cents())
}

func TestComputeSaleTotalsRoundsToCents(t *testing.T) {
	items := []SaleItem{
		NewSaleItem("p1", "Cream", 3, 0.1, 0.7),
		NewSaleItem("p2", "Soap", 1, 0.2, 0.3),
	}
	totals := ComputeSaleTotals(items)
	require.Equal(t, 0.5, totals.TotalCost)
	require.Equal(t, 2.4, totals.TotalPrice)
	require.Equal(t, 1.9, totals.TotalProfit)
}
