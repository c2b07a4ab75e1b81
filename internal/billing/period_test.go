package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputePeriodMetrics(t *testing.T) {
	now := time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC)
	marchAnchor := day(2024, time.March, 25)
	febAnchor := day(2024, time.February, 10)

	sales := []Sale{
		// March sale, paid in full at once.
		{
			ID: "cash", Date: day(2024, time.March, 2), Status: StatusPaid,
			Installments: 1, PaidInstallments: 1,
			TotalPrice: 200, TotalCost: 120, TotalProfit: 80,
			Items: []SaleItem{NewSaleItem("p-hair", "Shampoo", 2, 60, 100)},
		},
		// March sale with down payment and two open implicit parcels.
		{
			ID: "split", Date: day(2024, time.March, 5), Status: StatusPending,
			Installments: 2, DownPayment: 100, DueDate: &marchAnchor,
			TotalPrice: 300, TotalCost: 100, TotalProfit: 200,
			Items: []SaleItem{NewSaleItem("p-nail", "Polish", 1, 100, 300)},
		},
		// February sale with an explicit parcel paid in March.
		{
			ID: "explicit", Date: day(2024, time.February, 1), Status: StatusPending,
			TotalPrice: 200, TotalProfit: 200, Type: SaleTypeCommission,
			Items: []SaleItem{NewCommissionItem("Referral", 200)},
			CustomInstallments: []Installment{
				{ID: "e1", Number: 1, DueDate: day(2024, time.February, 10), Value: 100, Status: StatusPaid, PaidAt: StampTime(day(2024, time.March, 3))},
				{ID: "e2", Number: 2, DueDate: day(2024, time.March, 10), Value: 100, Status: StatusPending},
			},
		},
		// February implicit sale, one of three paid, second parcel due in March.
		{
			ID: "old", Date: day(2024, time.February, 1), Status: StatusPending,
			Installments: 3, PaidInstallments: 1, DueDate: &febAnchor,
			TotalPrice: 90, TotalCost: 30, TotalProfit: 60,
			Items: []SaleItem{NewSaleItem("retired", "Old kit", 1, 30, 90)},
		},
	}
	categories := map[string]string{"p-hair": "Hair"}

	m := ComputePeriodMetrics(PeriodInput{Sales: sales, Categories: categories, Now: now})
	require.Equal(t, "2024-03", m.Period)
	// 200 cash + 100 down payment + 100 explicit parcel paid in March.
	require.InDelta(t, 400, m.ReceivedMonth, 0.001)
	require.InDelta(t, 280, m.ProfitMonth, 0.001)
	// split parcel 1 (100, Mar 25) + explicit e2 (100) + old parcel 2 (30, Mar 10).
	require.InDelta(t, 230, m.PendingMonth, 0.001)
	// split 200 + explicit 200 + old 90 - 30.
	require.InDelta(t, 460, m.PendingTotal, 0.001)
	require.Equal(t, []CategoryProfit{
		{Name: CategoryOther, Value: 200},
		{Name: "Hair", Value: 80},
	}, m.CategoryBreakdown)
	require.Equal(t, 2, m.SalesCount)
	require.InDelta(t, 500, m.Revenue, 0.001)
	require.InDelta(t, 280, m.NetProfit, 0.001)
	require.InDelta(t, 56, m.Margin, 0.001)

	feb := ComputePeriodMetrics(PeriodInput{Sales: sales, Categories: categories, Period: PeriodOf(day(2024, time.February, 1)), Now: now})
	require.Equal(t, []CategoryProfit{
		{Name: CategoryCommissions, Value: 200},
		{Name: CategoryOther, Value: 60},
	}, feb.CategoryBreakdown)
	require.InDelta(t, 0, feb.ReceivedMonth, 0.001)
}

func TestCategoryBreakdownDropsNonPositive(t *testing.T) {
	p := PeriodOf(day(2024, time.May, 1))
	sales := []Sale{
		{Date: day(2024, time.May, 3), Items: []SaleItem{
			NewSaleItem("even", "At cost", 1, 50, 50),
			NewSaleItem("loss", "Clearance", 1, 80, 40),
			NewSaleItem("win", "Serum", 1, 10, 30),
		}},
	}
	categories := map[string]string{"even": "Zero", "loss": "Negative", "win": "Skin"}
	require.Equal(t, []CategoryProfit{{Name: "Skin", Value: 20}}, CategoryBreakdown(sales, categories, p))
}

func TestCategoryBreakdownUsesCurrentCategory(t *testing.T) {
	p := PeriodOf(day(2024, time.May, 1))
	sales := []Sale{{Date: day(2024, time.May, 3), Items: []SaleItem{NewSaleItem("x", "Oil", 1, 10, 30)}}}
	require.Equal(t, "Hair", CategoryBreakdown(sales, map[string]string{"x": "Hair"}, p)[0].Name)
	require.Equal(t, "Body", CategoryBreakdown(sales, map[string]string{"x": "Body"}, p)[0].Name)
}

func TestSummarizeSales(t *testing.T) {
	now := time.Date(2024, time.July, 15, 15, 0, 0, 0, time.UTC)
	late := day(2024, time.July, 1)
	sales := []Sale{
		{Date: now.Add(-2 * time.Hour), TotalPrice: 80, Status: StatusPaid, Installments: 1, PaidInstallments: 1},
		{Date: day(2024, time.June, 1), TotalPrice: 300, Installments: 3, Status: StatusPending, DueDate: &late},
	}
	sum := SummarizeSales(sales, now)
	require.Equal(t, 80.0, sum.RevenueToday)
	require.Equal(t, 1, sum.CountToday)
	require.Equal(t, 300.0, sum.TotalPending)
	require.Equal(t, 100.0, sum.TotalOverdue)
}

func TestPendingTotalClampsDownPayment(t *testing.T) {
	sales := []Sale{
		// Legacy record whose down payment exceeds the price.
		{ID: "over", Status: StatusPending, Installments: 2, TotalPrice: 100, DownPayment: 150},
		// No due date: still owed even though no parcel can be dated.
		{ID: "undated", Status: StatusPending, Installments: 4, PaidInstallments: 1, TotalPrice: 120, DownPayment: 20},
		{ID: "negative", Status: StatusPending, Installments: 1, TotalPrice: 30, DownPayment: -10},
	}
	require.Equal(t, 105.0, PendingTotal(sales))
	require.Equal(t, 75.0, PendingTotal(sales[1:2]))
	require.Equal(t, 0.0, PendingTotal(sales[:1]))

	march, err := NewPeriod(2024, time.March, time.UTC)
	require.NoError(t, err)
	in := []Sale{{ID: "over", Date: day(2024, time.March, 3), Status: StatusPaid, Installments: 1, PaidInstallments: 1, TotalPrice: 100, DownPayment: 150}}
	require.Equal(t, 100.0, ReceivedInPeriod(in, march))
}
