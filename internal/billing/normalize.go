package billing

import (
	"encoding/json"
	"fmt"
	"time"
)

// legacySale overlays the fields older records may omit, so their absence can
// be told apart from a zero value.
type legacySale struct {
	Type             *SaleType      `json:"type"`
	PaidInstallments *int           `json:"paidInstallments"`
	DownPayment      *float64       `json:"downPayment"`
	Status           *PaymentStatus `json:"status"`
}

// DecodeSale parses a stored sale and applies the legacy defaults: missing
// type is SALE, missing paid count follows the status, missing down payment
// is zero and installment counts below one become one.
func DecodeSale(data []byte) (Sale, error) {
	var sale Sale
	if err := json.Unmarshal(data, &sale); err != nil {
		return Sale{}, fmt.Errorf("decode sale: %w", err)
	}
	var legacy legacySale
	if err := json.Unmarshal(data, &legacy); err != nil {
		return Sale{}, fmt.Errorf("decode sale: %w", err)
	}
	if legacy.Type == nil || *legacy.Type == "" {
		sale.Type = SaleTypeSale
	}
	if legacy.Status == nil || *legacy.Status == "" {
		sale.Status = StatusPending
	}
	if legacy.DownPayment == nil {
		sale.DownPayment = 0
	}
	if sale.Installments < 1 {
		sale.Installments = 1
	}
	if legacy.PaidInstallments == nil {
		sale.PaidInstallments = 0
		if sale.IsPaid() {
			sale.PaidInstallments = sale.Installments
		}
	}
	return Normalize(sale), nil
}

// DecodeSaleIn returns a decoder that applies DecodeSale and then moves every
// timestamp into loc. Stored timestamps only keep a fixed UTC offset, and
// month stepping across a DST change needs the real zone.
func DecodeSaleIn(loc *time.Location) func([]byte) (Sale, error) {
	return func(data []byte) (Sale, error) {
		sale, err := DecodeSale(data)
		if err != nil {
			return Sale{}, err
		}
		return sale.In(loc), nil
	}
}

// In returns a copy of the sale with every timestamp expressed in loc. A nil
// loc leaves the sale as is.
func (s Sale) In(loc *time.Location) Sale {
	if loc == nil {
		return s
	}
	out := s.Clone()
	if !out.Date.IsZero() {
		out.Date = out.Date.In(loc)
	}
	out.DueDate = inLocation(out.DueDate, loc)
	for i := range out.CustomInstallments {
		inst := &out.CustomInstallments[i]
		inst.DueDate = inst.DueDate.In(loc)
		inst.PaidAt = inLocation(inst.PaidAt, loc)
	}
	return out
}

// SalesIn applies Sale.In to every sale.
func SalesIn(sales []Sale, loc *time.Location) []Sale {
	if loc == nil {
		return sales
	}
	out := make([]Sale, len(sales))
	for i, s := range sales {
		out[i] = s.In(loc)
	}
	return out
}

func inLocation(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	local := t.In(loc)
	return &local
}

// Normalize clamps counters into range and derives the aggregate state of
// explicit schedules.
func Normalize(s Sale) Sale {
	if s.Type == "" {
		s.Type = SaleTypeSale
	}
	if s.Status == "" {
		s.Status = StatusPending
	}
	if s.Installments < 1 {
		s.Installments = 1
	}
	if s.PaidInstallments < 0 {
		s.PaidInstallments = 0
	}
	if s.PaidInstallments > s.Installments {
		s.PaidInstallments = s.Installments
	}
	if s.DownPayment < 0 {
		s.DownPayment = 0
	}
	return Reconcile(s)
}

// StampTime returns a pointer to t, for optional timestamps.
func StampTime(t time.Time) *time.Time {
	return &t
}
