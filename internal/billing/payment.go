package billing

import (
	"sort"
	"time"
)

// ToggleStatus flips a sale between PAID and PENDING. On explicit schedules
// paying marks every open parcel paid at now and reverting reopens them all.
func ToggleStatus(s Sale, now time.Time) Sale {
	out := s.Clone()
	switch out.Schedule().(type) {
	case ExplicitSchedule:
		reopen := out.IsPaid()
		for i := range out.CustomInstallments {
			inst := &out.CustomInstallments[i]
			switch {
			case reopen:
				inst.Status = StatusPending
				inst.PaidAt = nil
			case !inst.IsPaid():
				paidAt := now
				inst.Status = StatusPaid
				inst.PaidAt = &paidAt
			}
		}
		return Reconcile(out)
	default:
		if out.IsPaid() {
			out.Status = StatusPending
			out.PaidInstallments = 0
		} else {
			out.Status = StatusPaid
			out.PaidInstallments = out.InstallmentCount()
		}
		return out
	}
}

// PayNextInstallment settles the lowest-numbered open parcel. A sale that is
// already paid is returned unchanged.
func PayNextInstallment(s Sale, now time.Time) Sale {
	if s.IsPaid() {
		return s.Clone()
	}
	out := s.Clone()
	switch out.Schedule().(type) {
	case ExplicitSchedule:
		idx := -1
		for i, inst := range out.CustomInstallments {
			if inst.IsPaid() {
				continue
			}
			if idx < 0 || inst.Number < out.CustomInstallments[idx].Number {
				idx = i
			}
		}
		if idx >= 0 {
			paidAt := now
			out.CustomInstallments[idx].Status = StatusPaid
			out.CustomInstallments[idx].PaidAt = &paidAt
		}
		return Reconcile(out)
	default:
		count := out.InstallmentCount()
		out.PaidInstallments++
		if out.PaidInstallments >= count {
			out.PaidInstallments = count
			out.Status = StatusPaid
		}
		return out
	}
}

// PayParcel settles one explicit parcel by id. Paying a parcel twice keeps the
// first payment date.
func PayParcel(s Sale, parcelID string, now time.Time) (Sale, error) {
	if !s.HasExplicitSchedule() {
		return s, ErrNoSchedule
	}
	out := s.Clone()
	for i := range out.CustomInstallments {
		inst := &out.CustomInstallments[i]
		if inst.ID != parcelID {
			continue
		}
		if !inst.IsPaid() {
			paidAt := now
			inst.Status = StatusPaid
			inst.PaidAt = &paidAt
		}
		return Reconcile(out), nil
	}
	return s, ErrParcelNotFound
}

// Reconcile derives the aggregate status, paid count and parcel count from
// the explicit parcel list. Sales without one are returned as they are.
func Reconcile(s Sale) Sale {
	if !s.HasExplicitSchedule() {
		return s
	}
	s = s.Clone()
	sort.SliceStable(s.CustomInstallments, func(i, j int) bool {
		return s.CustomInstallments[i].Number < s.CustomInstallments[j].Number
	})
	paid := 0
	for _, inst := range s.CustomInstallments {
		if inst.IsPaid() {
			paid++
		}
	}
	s.Installments = len(s.CustomInstallments)
	s.PaidInstallments = paid
	if paid == len(s.CustomInstallments) {
		s.Status = StatusPaid
	} else {
		s.Status = StatusPending
	}
	return s
}
