// Package billing holds the installment billing and receivables rules: sale
// totals, payment schedules, payment state transitions, overdue
// classification and per-period aggregates. Every function is pure and takes
// the reference instant explicitly.
package billing

import (
	"time"
)

// SaleType distinguishes product sales from flat-value commissions.
type SaleType string

const (
	SaleTypeSale       SaleType = "SALE"
	SaleTypeCommission SaleType = "COMMISSION"
)

// PaymentStatus is shared by sales and individual parcels.
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "PAID"
	StatusPending PaymentStatus = "PENDING"
)

// PaymentMethod enumerates accepted payment methods.
type PaymentMethod string

const (
	PaymentPix  PaymentMethod = "PIX"
	PaymentCard PaymentMethod = "CARD"
	PaymentCash PaymentMethod = "CASH"
)

// CommissionProductID marks the synthetic item carried by commission sales.
const CommissionProductID = "commission_ref"

// SaleItem is a line of a sale. Values are snapshots taken when the item is
// added and never change afterwards.
type SaleItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitCost    float64 `json:"unitCost"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalCost   float64 `json:"totalCost"`
	TotalPrice  float64 `json:"totalPrice"`
}

// NewSaleItem builds a line item with its derived totals.
func NewSaleItem(productID, productName string, quantity int, unitCost, unitPrice float64) SaleItem {
	return SaleItem{
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitCost:    unitCost,
		UnitPrice:   unitPrice,
		TotalCost:   unitCost * float64(quantity),
		TotalPrice:  unitPrice * float64(quantity),
	}
}

// NewCommissionItem builds the single synthetic item of a commission sale.
func NewCommissionItem(description string, value float64) SaleItem {
	return SaleItem{
		ProductID:   CommissionProductID,
		ProductName: description,
		Quantity:    1,
		UnitPrice:   value,
		TotalPrice:  value,
	}
}

// Installment is one explicitly tracked parcel of a sale.
type Installment struct {
	ID      string        `json:"id"`
	Number  int           `json:"number"`
	DueDate time.Time     `json:"dueDate"`
	Value   float64       `json:"value"`
	Status  PaymentStatus `json:"status"`
	PaidAt  *time.Time    `json:"paidAt,omitempty"`
}

// IsPaid reports whether the parcel has been settled.
func (i Installment) IsPaid() bool {
	return i.Status == StatusPaid
}

// Sale is the central billing record.
type Sale struct {
	ID                 string        `json:"id"`
	Type               SaleType      `json:"type"`
	CustomerID         string        `json:"customerId,omitempty"`
	CustomerName       string        `json:"customerName,omitempty"`
	Items              []SaleItem    `json:"items"`
	TotalCost          float64       `json:"totalCost"`
	TotalPrice         float64       `json:"totalPrice"`
	TotalProfit        float64       `json:"totalProfit"`
	ProfitMargin       float64       `json:"profitMargin"`
	DownPayment        float64       `json:"downPayment"`
	PaymentMethod      PaymentMethod `json:"paymentMethod"`
	Installments       int           `json:"installments"`
	PaidInstallments   int           `json:"paidInstallments"`
	IsRecurring        bool          `json:"isRecurring"`
	Status             PaymentStatus `json:"status"`
	Date               time.Time     `json:"date"`
	DueDate            *time.Time    `json:"dueDate,omitempty"`
	CustomInstallments []Installment `json:"customInstallments,omitempty"`
}

// IsPaid reports whether the sale is fully settled.
func (s Sale) IsPaid() bool {
	return s.Status == StatusPaid
}

// IsCommission reports whether the sale is a flat-value commission.
func (s Sale) IsCommission() bool {
	return s.Type == SaleTypeCommission
}

// HasExplicitSchedule reports whether the sale carries its own parcel list.
func (s Sale) HasExplicitSchedule() bool {
	return len(s.CustomInstallments) > 0
}

// InstallmentCount returns the parcel count, treating anything below one as one.
func (s Sale) InstallmentCount() int {
	if s.Installments < 1 {
		return 1
	}
	return s.Installments
}

// Clone returns a deep copy so transformations never alias the input.
func (s Sale) Clone() Sale {
	out := s
	if s.Items != nil {
		out.Items = append([]SaleItem(nil), s.Items...)
	}
	if s.DueDate != nil {
		due := *s.DueDate
		out.DueDate = &due
	}
	if s.CustomInstallments != nil {
		out.CustomInstallments = make([]Installment, len(s.CustomInstallments))
		for i, inst := range s.CustomInstallments {
			if inst.PaidAt != nil {
				paidAt := *inst.PaidAt
				inst.PaidAt = &paidAt
			}
			out.CustomInstallments[i] = inst
		}
	}
	return out
}
