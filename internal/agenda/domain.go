// Package agenda keeps the owner's appointments.
package agenda

import (
	"sort"
	"strings"
	"time"
)

// Layouts of the stored date and time fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Toggled flips SCHEDULED to COMPLETED; any other state reopens.
func (s Status) Toggled() Status {
	if s == StatusScheduled {
		return StatusCompleted
	}
	return StatusScheduled
}

// Appointment is a calendar entry, optionally tied to a customer.
type Appointment struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	CustomerID   string    `json:"customerId,omitempty"`
	CustomerName string    `json:"customerName,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AppointmentInput creates an appointment.
type AppointmentInput struct {
	Title      string `json:"title" validate:"required,max=120"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Time       string `json:"time" validate:"required,datetime=15:04"`
	CustomerID string `json:"customerId,omitempty"`
	Notes      string `json:"notes,omitempty" validate:"max=500"`
	Status     Status `json:"status,omitempty" validate:"omitempty,oneof=SCHEDULED COMPLETED CANCELLED"`
}

// AppointmentPatch updates selected fields. An empty customer id detaches
// the customer.
type AppointmentPatch struct {
	Title      *string `json:"title,omitempty" validate:"omitempty,min=1,max=120"`
	Date       *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Time       *string `json:"time,omitempty" validate:"omitempty,datetime=15:04"`
	CustomerID *string `json:"customerId,omitempty"`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=500"`
	Status     *Status `json:"status,omitempty" validate:"omitempty,oneof=SCHEDULED COMPLETED CANCELLED"`
}

func (p AppointmentPatch) apply(a *Appointment) {
	if p.Title != nil {
		a.Title = strings.TrimSpace(*p.Title)
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.Time != nil {
		a.Time = *p.Time
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
}

// DayGroup lists the appointments of one calendar day.
type DayGroup struct {
	Date         string        `json:"date"`
	Today        bool          `json:"today"`
	Appointments []Appointment `json:"appointments"`
}

// Group sorts appointments by date then time and buckets them per day. A
// non-empty day keeps only that day.
func Group(appts []Appointment, day, today string) []DayGroup {
	sorted := append([]Appointment(nil), appts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].Time < sorted[j].Time
	})
	groups := []DayGroup{}
	for _, a := range sorted {
		if day != "" && a.Date != day {
			continue
		}
		if n := len(groups); n == 0 || groups[n-1].Date != a.Date {
			groups = append(groups, DayGroup{Date: a.Date, Today: a.Date == today})
		}
		last := &groups[len(groups)-1]
		last.Appointments = append(last.Appointments, a)
	}
	return groups
}
