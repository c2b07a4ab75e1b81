// Package dashboard derives the owner's monthly figures, receivables alerts
// and chart series from a loaded snapshot.
package dashboard

import (
	"sort"
	"time"

	"github.com/bizledger/bizledger/internal/billing"
	"github.com/bizledger/bizledger/internal/masterdata"
)

// DailyPoint is the revenue and profit of the sales made on one day.
type DailyPoint struct {
	Day     string  `json:"day"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
}

// Metrics is the dashboard view of one month.
type Metrics struct {
	billing.PeriodMetrics
	StockValue    float64         `json:"stockValue"`
	LowStock      int             `json:"lowStock"`
	Daily         []DailyPoint    `json:"daily"`
	Alerts        []billing.Alert `json:"alerts"`
	OverdueCount  int             `json:"overdueCount"`
	OverdueAmount float64         `json:"overdueAmount"`
	GeneratedAt   time.Time       `json:"generatedAt"`
}

// Input carries everything Compute needs.
type Input struct {
	Sales       []billing.Sale
	Products    []masterdata.Product
	Period      billing.Period
	Now         time.Time
	AlertWindow time.Duration
}

// Compute builds the month metrics. Alerts ignore the period: they cover
// every overdue parcel plus those due within the alert window.
func Compute(in Input) Metrics {
	window := in.AlertWindow
	if window <= 0 {
		window = billing.DefaultAlertWindow
	}
	class := billing.ClassifyWithin(in.Sales, in.Now, window)
	m := Metrics{
		PeriodMetrics: billing.ComputePeriodMetrics(billing.PeriodInput{
			Sales:      in.Sales,
			Categories: masterdata.CategoryIndex(in.Products),
			Period:     in.Period,
			Now:        in.Now,
		}),
		StockValue:    masterdata.StockValuation(in.Products),
		Alerts:        class.Alerts(),
		OverdueCount:  len(class.Overdue),
		OverdueAmount: class.OverdueAmount(),
		GeneratedAt:   in.Now,
	}
	period := in.Period
	if period.IsZero() {
		period = billing.PeriodOf(in.Now)
	}
	m.Daily = DailySeries(in.Sales, period)
	for _, p := range in.Products {
		if p.LowStock() {
			m.LowStock++
		}
	}
	return m
}

// DailySeries groups the period's sales by calendar day, ascending. Days
// without sales are omitted.
func DailySeries(sales []billing.Sale, p billing.Period) []DailyPoint {
	byDay := map[string]*DailyPoint{}
	for _, s := range sales {
		if !p.Contains(s.Date) {
			continue
		}
		day := s.Date.In(p.Start().Location()).Format(time.DateOnly)
		point, ok := byDay[day]
		if !ok {
			point = &DailyPoint{Day: day}
			byDay[day] = point
		}
		point.Revenue += s.TotalPrice
		point.Profit += s.TotalProfit
	}
	out := make([]DailyPoint, 0, len(byDay))
	for _, point := range byDay {
		point.Revenue = billing.RoundCents(point.Revenue)
		point.Profit = billing.RoundCents(point.Profit)
		out = append(out, *point)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// SalesIn returns the period's sales, oldest first.
func SalesIn(sales []billing.Sale, p billing.Period) []billing.Sale {
	out := make([]billing.Sale, 0, len(sales))
	for _, s := range sales {
		if p.Contains(s.Date) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
