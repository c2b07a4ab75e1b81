package billing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Category buckets that do not come from products.
const (
	CategoryOther       = "Other"
	CategoryCommissions = "Commissions"
)

// PeriodInput drives ComputePeriodMetrics. Categories maps product id to the
// product's current category. A zero Period means the month containing Now.
type PeriodInput struct {
	Sales      []Sale
	Categories map[string]string
	Period     Period
	Now        time.Time
}

// CategoryProfit is one slice of the category breakdown.
type CategoryProfit struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// PeriodMetrics are the month aggregates shown on the dashboard.
type PeriodMetrics struct {
	Period            string           `json:"period"`
	ReceivedMonth     float64          `json:"receivedMonth"`
	ProfitMonth       float64          `json:"profitMonth"`
	PendingMonth      float64          `json:"pendingMonth"`
	PendingTotal      float64          `json:"pendingTotal"`
	CategoryBreakdown []CategoryProfit `json:"categoryBreakdown"`
	Revenue           float64          `json:"revenue"`
	Cost              float64          `json:"cost"`
	NetProfit         float64          `json:"netProfit"`
	Margin            float64          `json:"margin"`
	SalesCount        int              `json:"salesCount"`
}

// ComputePeriodMetrics aggregates the period. Each figure is computed
// independently from the sales list.
func ComputePeriodMetrics(in PeriodInput) PeriodMetrics {
	p := in.Period
	if p.IsZero() {
		p = PeriodOf(in.Now)
	}
	m := PeriodMetrics{
		Period:            p.String(),
		ReceivedMonth:     ReceivedInPeriod(in.Sales, p),
		ProfitMonth:       ProfitInPeriod(in.Sales, p),
		PendingMonth:      PendingInPeriod(in.Sales, p),
		PendingTotal:      PendingTotal(in.Sales),
		CategoryBreakdown: CategoryBreakdown(in.Sales, in.Categories, p),
	}
	var revenue, cost, net Sum
	for _, s := range in.Sales {
		if !p.Contains(s.Date) {
			continue
		}
		m.SalesCount++
		revenue.Add(s.TotalPrice)
		cost.Add(s.TotalCost)
		net.Add(s.TotalPrice)
		net.Sub(s.TotalCost)
	}
	m.Revenue = revenue.Cents()
	m.Cost = cost.Cents()
	m.NetProfit = net.Cents()
	m.Margin = marginOf(m.Revenue, m.NetProfit)
	return m
}

// ReceivedInPeriod is the cash received in the period: down payments of
// sales made in it, the rest of implicit sales made and paid in it, and
// explicit parcels paid in it.
func ReceivedInPeriod(sales []Sale, p Period) float64 {
	var total Sum
	for _, s := range sales {
		created := p.Contains(s.Date)
		if created {
			total.Add(ClampDownPayment(s.DownPayment, s.TotalPrice))
		}
		switch sched := s.Schedule().(type) {
		case ExplicitSchedule:
			for _, inst := range sched.Parcels {
				if inst.IsPaid() && inst.PaidAt != nil && p.Contains(*inst.PaidAt) {
					total.Add(inst.Value)
				}
			}
		case ImplicitSchedule:
			if created && s.IsPaid() {
				total.Add(s.TotalPrice - ClampDownPayment(s.DownPayment, s.TotalPrice))
			}
		}
	}
	return total.Cents()
}

// ProfitInPeriod sums the profit of sales made in the period.
func ProfitInPeriod(sales []Sale, p Period) float64 {
	var total Sum
	for _, s := range sales {
		if p.Contains(s.Date) {
			total.Add(s.TotalProfit)
		}
	}
	return total.Cents()
}

// PendingInPeriod sums open parcels due in the period.
func PendingInPeriod(sales []Sale, p Period) float64 {
	var total Sum
	for _, s := range sales {
		switch sched := s.Schedule().(type) {
		case ExplicitSchedule:
			for _, inst := range sched.Parcels {
				if !inst.IsPaid() && p.Contains(inst.DueDate) {
					total.Add(inst.Value)
				}
			}
		case ImplicitSchedule:
			if s.IsPaid() {
				continue
			}
			for _, parcel := range sched.Expand() {
				if !parcel.Paid && p.Contains(parcel.DueDate) {
					total.Add(parcel.Value)
				}
			}
		}
	}
	return total.Cents()
}

// PendingTotal estimates the open balance of every pending sale as the
// remaining amount minus the paid share of an even split.
func PendingTotal(sales []Sale) float64 {
	var total Sum
	for _, s := range sales {
		if s.IsPaid() {
			continue
		}
		total.Add(openBalance(s))
	}
	return total.Cents()
}

// openBalance is the remaining amount after the clamped down payment, less
// the paid share of an even split.
func openBalance(s Sale) float64 {
	remaining := decimal.NewFromFloat(s.TotalPrice).Sub(decimal.NewFromFloat(ClampDownPayment(s.DownPayment, s.TotalPrice)))
	perInstallment := remaining.Div(decimal.NewFromInt(int64(s.InstallmentCount())))
	return remaining.Sub(perInstallment.Mul(decimal.NewFromInt(int64(s.PaidInstallments)))).InexactFloat64()
}

// CategoryBreakdown groups the profit of sales made in the period by current
// product category, dropping non-positive buckets and sorting descending.
func CategoryBreakdown(sales []Sale, categories map[string]string, p Period) []CategoryProfit {
	buckets := map[string]*Sum{}
	add := func(category string, v float64) {
		b, ok := buckets[category]
		if !ok {
			b = &Sum{}
			buckets[category] = b
		}
		b.Add(v)
	}
	for _, s := range sales {
		if !p.Contains(s.Date) {
			continue
		}
		if s.IsCommission() {
			add(CategoryCommissions, s.TotalProfit)
			continue
		}
		for _, item := range s.Items {
			category, ok := categories[item.ProductID]
			if !ok || category == "" {
				category = CategoryOther
			}
			add(category, item.TotalPrice)
			add(category, -item.TotalCost)
		}
	}
	out := make([]CategoryProfit, 0, len(buckets))
	for name, sum := range buckets {
		value := sum.Cents()
		if value <= 0 {
			continue
		}
		out = append(out, CategoryProfit{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// SalesSummary feeds the sales page cards.
type SalesSummary struct {
	RevenueToday float64 `json:"revenueToday"`
	CountToday   int     `json:"countToday"`
	TotalPending float64 `json:"totalPending"`
	TotalOverdue float64 `json:"totalOverdue"`
}

// SummarizeSales computes today's revenue and count plus the open and overdue
// balances. The overdue figure counts the next open parcel of each overdue sale.
func SummarizeSales(sales []Sale, now time.Time) SalesSummary {
	var sum SalesSummary
	var revenue, pending, overdue Sum
	today := StartOfDay(now)
	for _, s := range sales {
		if StartOfDay(s.Date.In(now.Location())).Equal(today) {
			revenue.Add(s.TotalPrice)
			sum.CountToday++
		}
		if s.IsPaid() {
			continue
		}
		pending.Add(openBalance(s))
		if info, ok := DueStatusOf(s, now); ok && info.Overdue {
			overdue.Add(info.Parcel.Value)
		}
	}
	sum.RevenueToday = revenue.Cents()
	sum.TotalPending = pending.Cents()
	sum.TotalOverdue = overdue.Cents()
	return sum
}
