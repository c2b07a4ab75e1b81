package billing

import (
	"math"
	"sort"
	"time"
)

// DefaultAlertWindow is how far ahead a parcel counts as upcoming.
const DefaultAlertWindow = 7 * 24 * time.Hour

// DefaultCustomerName labels alerts for sales without a customer name.
const DefaultCustomerName = "Customer"

// Alert is one open parcel surfaced to the owner.
type Alert struct {
	SaleID            string    `json:"saleId"`
	ParcelID          string    `json:"parcelId,omitempty"`
	CustomerName      string    `json:"customerName"`
	InstallmentNumber int       `json:"installmentNumber"`
	TotalInstallments int       `json:"totalInstallments"`
	Value             float64   `json:"value"`
	DueDate           time.Time `json:"dueDate"`
	DaysUntil         int       `json:"daysUntil"`
	Overdue           bool      `json:"overdue"`
}

// Classification splits open parcels into overdue and upcoming, each sorted
// by due date ascending.
type Classification struct {
	Overdue  []Alert `json:"overdue"`
	Upcoming []Alert `json:"upcoming"`
}

// Alerts returns overdue followed by upcoming.
func (c Classification) Alerts() []Alert {
	out := make([]Alert, 0, len(c.Overdue)+len(c.Upcoming))
	out = append(out, c.Overdue...)
	return append(out, c.Upcoming...)
}

// OverdueAmount sums the overdue parcel values.
func (c Classification) OverdueAmount() float64 {
	var total Sum
	for _, a := range c.Overdue {
		total.Add(a.Value)
	}
	return total.Cents()
}

// ClassifyPendingInstallments classifies with the default seven day window.
func ClassifyPendingInstallments(sales []Sale, now time.Time) Classification {
	return ClassifyWithin(sales, now, DefaultAlertWindow)
}

// ClassifyWithin classifies every open parcel of every pending sale. A parcel
// due strictly before now is overdue; one due in [now, now+window] is upcoming.
func ClassifyWithin(sales []Sale, now time.Time, window time.Duration) Classification {
	limit := now.Add(window)
	c := Classification{Overdue: []Alert{}, Upcoming: []Alert{}}
	for _, a := range OpenParcels(sales, now) {
		switch {
		case a.DueDate.Before(now):
			c.Overdue = append(c.Overdue, a)
		case !a.DueDate.After(limit):
			c.Upcoming = append(c.Upcoming, a)
		}
	}
	sortByDue(c.Overdue)
	sortByDue(c.Upcoming)
	return c
}

// OpenParcels lists every unpaid parcel of pending sales, whatever its date.
func OpenParcels(sales []Sale, now time.Time) []Alert {
	var out []Alert
	for _, s := range sales {
		if s.IsPaid() {
			continue
		}
		name := s.CustomerName
		if name == "" {
			name = DefaultCustomerName
		}
		parcels := s.Schedule().Expand()
		for _, p := range parcels {
			if p.Paid {
				continue
			}
			out = append(out, Alert{
				SaleID:            s.ID,
				ParcelID:          p.ID,
				CustomerName:      name,
				InstallmentNumber: p.Number,
				TotalInstallments: len(parcels),
				Value:             p.Value,
				DueDate:           p.DueDate,
				DaysUntil:         DaysUntil(p.DueDate, now),
				Overdue:           p.DueDate.Before(now),
			})
		}
	}
	return out
}

// OverdueList returns every overdue parcel, most overdue first.
func OverdueList(sales []Sale, now time.Time) []Alert {
	c := ClassifyWithin(sales, now, 0)
	return c.Overdue
}

func sortByDue(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DueDate.Before(alerts[j].DueDate)
	})
}

// DueStatus labels a pending sale by its next open parcel.
type DueStatus string

const (
	DueOnTime  DueStatus = "ON_TIME"
	DueSoon    DueStatus = "DUE_SOON"
	DueOverdue DueStatus = "OVERDUE"
)

// DueSoonDays is the horizon for DueSoon.
const DueSoonDays = 3

// DueInfo describes the next open parcel of a pending sale.
type DueInfo struct {
	Status  DueStatus `json:"status"`
	Days    int       `json:"days"`
	Parcel  Parcel    `json:"parcel"`
	Overdue bool      `json:"overdue"`
}

// DueStatusOf reports the due status of a pending sale's next open parcel.
// Overdue follows the classifier boundary; Days rounds the remaining time up
// to whole days.
func DueStatusOf(s Sale, now time.Time) (DueInfo, bool) {
	if s.IsPaid() {
		return DueInfo{}, false
	}
	next, ok := NextUnpaid(s)
	if !ok {
		return DueInfo{}, false
	}
	days := int(math.Ceil(next.DueDate.Sub(now).Hours() / 24))
	info := DueInfo{Days: days, Parcel: next}
	switch {
	case next.DueDate.Before(now):
		info.Status = DueOverdue
		info.Overdue = true
	case days <= DueSoonDays:
		info.Status = DueSoon
	default:
		info.Status = DueOnTime
	}
	return info, true
}
