package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClassifyBoundaryAtNow(t *testing.T) {
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	atNow := now
	justBefore := now.Add(-time.Millisecond)
	sales := []Sale{
		{ID: "due-now", TotalPrice: 100, Installments: 1, Status: StatusPending, DueDate: &atNow},
		{ID: "due-before", TotalPrice: 100, Installments: 1, Status: StatusPending, DueDate: &justBefore},
	}
	c := ClassifyPendingInstallments(sales, now)
	require.Len(t, c.Overdue, 1)
	require.Equal(t, "due-before", c.Overdue[0].SaleID)
	require.Len(t, c.Upcoming, 1)
	require.Equal(t, "due-now", c.Upcoming[0].SaleID)
	require.Equal(t, 0, c.Upcoming[0].DaysUntil)
}

func TestClassifyFiveOverdueSorted(t *testing.T) {
	now := time.Date(2024, time.June, 20, 9, 0, 0, 0, time.UTC)
	var sales []Sale
	for _, daysLate := range []int{3, 10, 1, 7, 5} {
		due := now.AddDate(0, 0, -daysLate)
		sales = append(sales, Sale{ID: "s", CustomerName: "Ana", TotalPrice: 50, Installments: 1, Status: StatusPending, DueDate: &due})
	}
	c := ClassifyPendingInstallments(sales, now)
	require.Len(t, c.Overdue, 5)
	require.Empty(t, c.Upcoming)
	for i := 1; i < len(c.Overdue); i++ {
		require.True(t, c.Overdue[i-1].DueDate.Before(c.Overdue[i].DueDate))
	}
	require.Equal(t, -10, c.Overdue[0].DaysUntil)
	require.Equal(t, 250.0, c.OverdueAmount())
}

func TestClassifyWindowAndPaidParcels(t *testing.T) {
	now := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	anchor := time.Date(2024, time.April, 3, 8, 0, 0, 0, time.UTC)
	sale := Sale{
		ID:               "s1",
		TotalPrice:       400,
		Installments:     4,
		PaidInstallments: 1,
		Status:           StatusPending,
		DueDate:          &anchor,
	}
	// parcels: Apr 3 (paid), May 3 (overdue), Jun 3 (upcoming), Jul 3 (beyond window)
	c := ClassifyPendingInstallments([]Sale{sale}, now)
	require.Len(t, c.Overdue, 1)
	require.Equal(t, 2, c.Overdue[0].InstallmentNumber)
	require.Equal(t, 4, c.Overdue[0].TotalInstallments)
	require.Equal(t, DefaultCustomerName, c.Overdue[0].CustomerName)
	require.Len(t, c.Upcoming, 1)
	require.Equal(t, 3, c.Upcoming[0].InstallmentNumber)

	alerts := c.Alerts()
	require.Len(t, alerts, 2)
	require.True(t, alerts[0].Overdue)

	require.Len(t, OpenParcels([]Sale{sale}, now), 3)
}

func TestClassifySkipsPaidAndUndatedSales(t *testing.T) {
	now := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)
	sales := []Sale{
		{ID: "paid", TotalPrice: 100, Installments: 1, PaidInstallments: 1, Status: StatusPaid, DueDate: &past},
		{ID: "undated", TotalPrice: 100, Installments: 1, Status: StatusPending},
	}
	c := ClassifyPendingInstallments(sales, now)
	require.Empty(t, c.Overdue)
	require.Empty(t, c.Upcoming)
	require.InDelta(t, 100, PendingTotal(sales), 0.001)
}

func TestClassifyExplicitParcels(t *testing.T) {
	now := day(2024, time.February, 20)
	sale := explicitSale(StatusPaid, StatusPending, StatusPending)
	sale.CustomerName = "Bia"
	c := ClassifyPendingInstallments([]Sale{sale}, now)
	require.Len(t, c.Overdue, 1)
	require.Equal(t, "b", c.Overdue[0].ParcelID)
	require.Empty(t, c.Upcoming)
}

func TestOverdueListMostOverdueFirst(t *testing.T) {
	now := day(2024, time.June, 30)
	a := day(2024, time.June, 1)
	b := day(2024, time.May, 1)
	list := OverdueList([]Sale{
		{ID: "a", TotalPrice: 10, Installments: 1, Status: StatusPending, DueDate: &a},
		{ID: "b", TotalPrice: 10, Installments: 1, Status: StatusPending, DueDate: &b},
	}, now)
	require.Len(t, list, 2)
	require.Equal(t, "b", list[0].SaleID)
}

func TestDueStatusOf(t *testing.T) {
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	mk := func(due time.Time) Sale {
		return Sale{TotalPrice: 100, Installments: 1, Status: StatusPending, DueDate: &due}
	}

	info, ok := DueStatusOf(mk(now.Add(-time.Hour)), now)
	require.True(t, ok)
	require.Equal(t, DueOverdue, info.Status)

	info, _ = DueStatusOf(mk(now.Add(48*time.Hour)), now)
	require.Equal(t, DueSoon, info.Status)
	require.Equal(t, 2, info.Days)

	info, _ = DueStatusOf(mk(now.Add(10*24*time.Hour)), now)
	require.Equal(t, DueOnTime, info.Status)

	_, ok = DueStatusOf(Sale{Status: StatusPending, Installments: 1}, now)
	require.False(t, ok)

	_, ok = DueStatusOf(implicitSale(2, 2, StatusPaid), now)
	require.False(t, ok)
}
