package billing

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrInvalidPlan signals an installment plan that cannot be built.
	ErrInvalidPlan = errors.New("billing: invalid installment plan")
	// ErrParcelNotFound signals a parcel id absent from the sale.
	ErrParcelNotFound = errors.New("billing: parcel not found")
	// ErrNoSchedule signals an operation that needs an explicit parcel list.
	ErrNoSchedule = errors.New("billing: sale has no explicit schedule")
)

// PlanInput drives BuildInstallmentPlan.
type PlanInput struct {
	TotalPrice   float64   `json:"totalPrice" validate:"gte=0"`
	DownPayment  float64   `json:"downPayment" validate:"gte=0"`
	Installments int       `json:"installments" validate:"gte=1"`
	Anchor       time.Time `json:"anchor" validate:"required"`
}

// PlannedInstallment is one line of a computed plan.
type PlannedInstallment struct {
	Number  int       `json:"number"`
	DueDate time.Time `json:"dueDate"`
	Value   float64   `json:"value"`
}

// BuildInstallmentPlan splits the balance left after the down payment into
// monthly parcels starting at the anchor. A down payment at or above the total
// yields an empty plan.
func BuildInstallmentPlan(in PlanInput) ([]PlannedInstallment, error) {
	switch {
	case in.Installments < 1:
		return nil, fmt.Errorf("%w: installments must be at least 1, got %d", ErrInvalidPlan, in.Installments)
	case in.TotalPrice < 0:
		return nil, fmt.Errorf("%w: negative total price", ErrInvalidPlan)
	case in.DownPayment < 0:
		return nil, fmt.Errorf("%w: negative down payment", ErrInvalidPlan)
	case in.Anchor.IsZero():
		return nil, fmt.Errorf("%w: missing first due date", ErrInvalidPlan)
	}
	return planParcels(in.TotalPrice, in.DownPayment, in.Installments, in.Anchor), nil
}

func planParcels(total, downPayment float64, count int, anchor time.Time) []PlannedInstallment {
	if count < 1 {
		count = 1
	}
	remaining := total - ClampDownPayment(downPayment, total)
	if RoundCents(remaining) <= 0 {
		return []PlannedInstallment{}
	}
	values := SplitEvenly(remaining, count)
	plan := make([]PlannedInstallment, count)
	for i := range plan {
		plan[i] = PlannedInstallment{
			Number:  i + 1,
			DueDate: AddMonthsClamped(anchor, i),
			Value:   values[i],
		}
	}
	return plan
}

// Parcel is the uniform view of one parcel regardless of representation.
type Parcel struct {
	ID      string     `json:"id,omitempty"`
	Number  int        `json:"number"`
	DueDate time.Time  `json:"dueDate"`
	Value   float64    `json:"value"`
	Paid    bool       `json:"paid"`
	PaidAt  *time.Time `json:"paidAt,omitempty"`
}

// Schedule is either an ImplicitSchedule or an ExplicitSchedule.
type Schedule interface {
	// Expand lists every parcel in number order.
	Expand() []Parcel
	schedule()
}

// ImplicitSchedule derives parcels from the first due date and a count.
type ImplicitSchedule struct {
	Anchor      *time.Time
	Count       int
	Paid        int
	Total       float64
	DownPayment float64
}

func (ImplicitSchedule) schedule() {}

// Expand synthesises the parcels; the first Paid of them count as settled.
// Without an anchor there are no parcels to report.
func (s ImplicitSchedule) Expand() []Parcel {
	if s.Anchor == nil {
		return nil
	}
	plan := planParcels(s.Total, s.DownPayment, s.Count, *s.Anchor)
	parcels := make([]Parcel, len(plan))
	for i, p := range plan {
		parcels[i] = Parcel{
			Number:  p.Number,
			DueDate: p.DueDate,
			Value:   p.Value,
			Paid:    i < s.Paid,
		}
	}
	return parcels
}

// ExplicitSchedule carries individually tracked parcels.
type ExplicitSchedule struct {
	Parcels []Installment
}

func (ExplicitSchedule) schedule() {}

// Expand converts the stored parcels, ordered by number.
func (s ExplicitSchedule) Expand() []Parcel {
	parcels := make([]Parcel, len(s.Parcels))
	for i, inst := range s.Parcels {
		parcels[i] = Parcel{
			ID:      inst.ID,
			Number:  inst.Number,
			DueDate: inst.DueDate,
			Value:   inst.Value,
			Paid:    inst.IsPaid(),
			PaidAt:  inst.PaidAt,
		}
	}
	sort.SliceStable(parcels, func(i, j int) bool { return parcels[i].Number < parcels[j].Number })
	return parcels
}

// Schedule returns the sale's parcel representation.
func (s Sale) Schedule() Schedule {
	if s.HasExplicitSchedule() {
		return ExplicitSchedule{Parcels: s.CustomInstallments}
	}
	return ImplicitSchedule{
		Anchor:      s.DueDate,
		Count:       s.InstallmentCount(),
		Paid:        s.PaidInstallments,
		Total:       s.TotalPrice,
		DownPayment: s.DownPayment,
	}
}

// NextUnpaid returns the lowest-numbered unpaid parcel, if any.
func NextUnpaid(s Sale) (Parcel, bool) {
	for _, p := range s.Schedule().Expand() {
		if !p.Paid {
			return p, true
		}
	}
	return Parcel{}, false
}

// ExplicitFromPlan turns a computed plan into tracked parcels. newID supplies
// parcel identifiers.
func ExplicitFromPlan(plan []PlannedInstallment, newID func() string) []Installment {
	out := make([]Installment, len(plan))
	for i, p := range plan {
		out[i] = Installment{
			ID:      newID(),
			Number:  p.Number,
			DueDate: p.DueDate,
			Value:   p.Value,
			Status:  StatusPending,
		}
	}
	return out
}

// ScheduleLine is one row of the customer-facing schedule.
type ScheduleLine struct {
	Number    int        `json:"number"`
	ParcelID  string     `json:"parcelId,omitempty"`
	DueDate   time.Time  `json:"dueDate"`
	Value     float64    `json:"value"`
	Paid      bool       `json:"paid"`
	PaidAt    *time.Time `json:"paidAt,omitempty"`
	Entry     bool       `json:"entry"`
	Overdue   bool       `json:"overdue"`
	NextToPay bool       `json:"nextToPay"`
}

// DisplaySchedule lists the down payment as entry line 0, dated at the sale
// and always paid, followed by every parcel.
func DisplaySchedule(s Sale, now time.Time) []ScheduleLine {
	var lines []ScheduleLine
	if s.DownPayment > 0 {
		lines = append(lines, ScheduleLine{
			Number:  0,
			DueDate: s.Date,
			Value:   s.DownPayment,
			Paid:    true,
			Entry:   true,
		})
	}
	next := true
	for _, p := range s.Schedule().Expand() {
		paid := p.Paid || (s.IsPaid() && !s.HasExplicitSchedule())
		line := ScheduleLine{
			Number:   p.Number,
			ParcelID: p.ID,
			DueDate:  p.DueDate,
			Value:    p.Value,
			Paid:     paid,
			PaidAt:   p.PaidAt,
			Overdue:  !paid && p.DueDate.Before(now),
		}
		if !paid && next {
			line.NextToPay = true
			next = false
		}
		lines = append(lines, line)
	}
	return lines
}
