// Package sales records sales and commissions and drives their payment
// lifecycle on top of the billing rules.
package sales

import (
	"strings"
	"time"

	"github.com/bizledger/bizledger/internal/billing"
)

// WalkInCustomer names sales recorded without a customer.
const WalkInCustomer = "Walk-in customer"

// ItemRequest adds a product to a sale.
type ItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=100000"`
}

// ParcelRequest declares one explicit parcel.
type ParcelRequest struct {
	DueDate time.Time             `json:"dueDate" validate:"required"`
	Value   float64               `json:"value" validate:"gt=0"`
	Status  billing.PaymentStatus `json:"status,omitempty" validate:"omitempty,oneof=PAID PENDING"`
	PaidAt  *time.Time            `json:"paidAt,omitempty"`
}

// CreateSaleRequest records a sale or a commission.
type CreateSaleRequest struct {
	Type               billing.SaleType      `json:"type,omitempty" validate:"omitempty,oneof=SALE COMMISSION"`
	CustomerID         string                `json:"customerId,omitempty"`
	Items              []ItemRequest         `json:"items,omitempty" validate:"omitempty,dive"`
	Description        string                `json:"description,omitempty" validate:"max=120"`
	CommissionValue    float64               `json:"commissionValue,omitempty" validate:"gte=0"`
	DownPayment        float64               `json:"downPayment,omitempty" validate:"gte=0"`
	PaymentMethod      billing.PaymentMethod `json:"paymentMethod" validate:"required,oneof=PIX CARD CASH"`
	Installments       int                   `json:"installments,omitempty" validate:"gte=0,lte=360"`
	IsRecurring        bool                  `json:"isRecurring,omitempty"`
	Status             billing.PaymentStatus `json:"status,omitempty" validate:"omitempty,oneof=PAID PENDING"`
	DueDate            *time.Time            `json:"dueDate,omitempty"`
	DueDay             string                `json:"dueDay,omitempty" validate:"omitempty,datetime=2006-01-02"`
	GenerateParcels    bool                  `json:"generateParcels,omitempty"`
	CustomInstallments []ParcelRequest       `json:"customInstallments,omitempty" validate:"omitempty,dive"`
}

func (r CreateSaleRequest) kind() billing.SaleType {
	if r.Type == "" {
		return billing.SaleTypeSale
	}
	return r.Type
}

// UpdateSaleRequest edits a sale. Totals are never re-derived; changing the
// due date reschedules implicit parcels.
type UpdateSaleRequest struct {
	CustomerID         *string                `json:"customerId,omitempty"`
	PaymentMethod      *billing.PaymentMethod `json:"paymentMethod,omitempty" validate:"omitempty,oneof=PIX CARD CASH"`
	IsRecurring        *bool                  `json:"isRecurring,omitempty"`
	DueDate            *time.Time             `json:"dueDate,omitempty"`
	DueDay             *string                `json:"dueDay,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CustomInstallments *[]ParcelRequest       `json:"customInstallments,omitempty"`
}

// Tab filters the sales list.
type Tab string

const (
	TabAll     Tab = "ALL"
	TabPending Tab = "PENDING"
	TabOverdue Tab = "OVERDUE"
	TabPaid    Tab = "PAID"
)

// ListFilter narrows the sales list.
type ListFilter struct {
	Search string
	Tab    Tab
}

func (f ListFilter) matchSearch(s billing.Sale) bool {
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(s.CustomerName), q) || strings.Contains(s.ID, f.Search) {
		return true
	}
	for _, item := range s.Items {
		if strings.Contains(strings.ToLower(item.ProductName), q) {
			return true
		}
	}
	return false
}

func (f ListFilter) matchTab(s billing.Sale, now time.Time) bool {
	switch f.Tab {
	case TabPaid:
		return s.IsPaid()
	case TabPending, TabOverdue:
		if s.IsPaid() {
			return false
		}
		info, ok := billing.DueStatusOf(s, now)
		overdue := ok && info.Overdue
		return overdue == (f.Tab == TabOverdue)
	default:
		return true
	}
}

// SaleView is a sale with its current due status.
type SaleView struct {
	billing.Sale
	Due *billing.DueInfo `json:"due,omitempty"`
}

func viewOf(s billing.Sale, now time.Time) SaleView {
	v := SaleView{Sale: s}
	if info, ok := billing.DueStatusOf(s, now); ok {
		v.Due = &info
	}
	return v
}

// StockAdjustment changes a product's stock when a sale is recorded.
type StockAdjustment struct {
	ProductID string
	Delta     int
}

// EndOfDay resolves a calendar day to its last millisecond in loc.
func EndOfDay(day string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), loc), nil
}
