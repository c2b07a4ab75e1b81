package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bizledger/bizledger/internal/billing"
	"github.com/bizledger/bizledger/internal/dashboard"
)

// WriteSummaryCSV serialises the month figures as Metric,Value rows.
func WriteSummaryCSV(w io.Writer, m dashboard.Metrics) error {
	writer := csv.NewWriter(w)
	records := [][]string{
		{"Metric", "Value"},
		{"Period", m.Period},
		{"Revenue", formatFloat(m.Revenue)},
		{"Cost", formatFloat(m.Cost)},
		{"Net Profit", formatFloat(m.NetProfit)},
		{"Margin", strconv.FormatFloat(m.Margin, 'f', 2, 64)},
		{"Received", formatFloat(m.ReceivedMonth)},
		{"Pending This Month", formatFloat(m.PendingMonth)},
		{"Pending Total", formatFloat(m.PendingTotal)},
		{"Overdue", formatFloat(m.OverdueAmount)},
		{"Stock Value", formatFloat(m.StockValue)},
		{"Sales", strconv.Itoa(m.SalesCount)},
	}
	for _, c := range m.CategoryBreakdown {
		records = append(records, []string{"Profit: " + c.Name, formatFloat(c.Value)})
	}
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return writer.Error()
}

// WriteSalesCSV emits one row per sale.
func WriteSalesCSV(w io.Writer, sales []billing.Sale, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	writer := csv.NewWriter(w)
	defer writer.Flush()
	header := []string{"Date", "Sale ID", "Type", "Customer", "Items", "Payment Method", "Status", "Installments", "Paid Installments", "Down Payment", "Total", "Cost", "Profit", "Due Date"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, s := range sales {
		due := ""
		if s.DueDate != nil {
			due = s.DueDate.In(loc).Format(time.DateOnly)
		}
		if err := writer.Write([]string{
			s.Date.In(loc).Format(time.DateTime),
			s.ID,
			string(s.Type),
			s.CustomerName,
			itemSummary(s.Items),
			string(s.PaymentMethod),
			string(s.Status),
			strconv.Itoa(s.InstallmentCount()),
			strconv.Itoa(s.PaidInstallments),
			formatFloat(s.DownPayment),
			formatFloat(s.TotalPrice),
			formatFloat(s.TotalCost),
			formatFloat(s.TotalProfit),
			due,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteAlertsCSV prints open parcels that need attention.
func WriteAlertsCSV(w io.Writer, alerts []billing.Alert, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Due Date", "Customer", "Sale ID", "Installment", "Value", "Days", "Overdue"}); err != nil {
		return err
	}
	for _, a := range alerts {
		if err := writer.Write([]string{
			a.DueDate.In(loc).Format(time.DateOnly),
			a.CustomerName,
			a.SaleID,
			strconv.Itoa(a.InstallmentNumber) + "/" + strconv.Itoa(a.TotalInstallments),
			formatFloat(a.Value),
			strconv.Itoa(a.DaysUntil),
			strconv.FormatBool(a.Overdue),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func itemSummary(items []billing.SaleItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, strconv.Itoa(it.Quantity)+"x "+it.ProductName)
	}
	return strings.Join(parts, "; ")
}
