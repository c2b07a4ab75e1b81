// Package masterdata manages the products and customers a sale refers to.
package masterdata

import (
	"sort"
	"strings"
	"time"
)

// LowStockThreshold flags products that need restocking.
const LowStockThreshold = 5

// Product is a sellable item.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Cost         float64   `json:"cost"`
	Price        float64   `json:"price"`
	Stock        int       `json:"stock"`
	InitialStock int       `json:"initialStock"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LowStock reports whether stock is at or below the threshold.
func (p Product) LowStock() bool {
	return p.Stock <= LowStockThreshold
}

// Customer is a buyer. Sales keep their own copy of the name.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	ZipCode   string    `json:"zipCode,omitempty"`
	Address   string    `json:"address,omitempty"`
	Number    string    `json:"number,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProductInput creates a product.
type ProductInput struct {
	Name     string  `json:"name" validate:"required,max=120"`
	Category string  `json:"category" validate:"required,max=60"`
	Cost     float64 `json:"cost" validate:"gte=0"`
	Price    float64 `json:"price" validate:"gte=0"`
	Stock    int     `json:"stock"`
}

// ProductPatch updates selected product fields.
type ProductPatch struct {
	Name     *string  `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Category *string  `json:"category,omitempty" validate:"omitempty,min=1,max=60"`
	Cost     *float64 `json:"cost,omitempty" validate:"omitempty,gte=0"`
	Price    *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Stock    *int     `json:"stock,omitempty"`
}

func (p ProductPatch) apply(product *Product) {
	if p.Name != nil {
		product.Name = strings.TrimSpace(*p.Name)
	}
	if p.Category != nil {
		product.Category = strings.TrimSpace(*p.Category)
	}
	if p.Cost != nil {
		product.Cost = *p.Cost
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Stock != nil {
		product.Stock = *p.Stock
	}
}

// CustomerInput creates a customer.
type CustomerInput struct {
	Name    string `json:"name" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"max=30"`
	ZipCode string `json:"zipCode" validate:"omitempty,max=10"`
	Address string `json:"address" validate:"max=200"`
	Number  string `json:"number" validate:"max=20"`
	City    string `json:"city" validate:"max=80"`
	State   string `json:"state" validate:"omitempty,len=2"`
	Notes   string `json:"notes" validate:"max=500"`
}

// CustomerPatch updates selected customer fields.
type CustomerPatch struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	ZipCode *string `json:"zipCode,omitempty" validate:"omitempty,max=10"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=200"`
	Number  *string `json:"number,omitempty" validate:"omitempty,max=20"`
	City    *string `json:"city,omitempty" validate:"omitempty,max=80"`
	State   *string `json:"state,omitempty" validate:"omitempty,len=2"`
	Notes   *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (p CustomerPatch) apply(c *Customer) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&c.Name, p.Name)
	set(&c.Phone, p.Phone)
	set(&c.ZipCode, p.ZipCode)
	set(&c.Address, p.Address)
	set(&c.Number, p.Number)
	set(&c.City, p.City)
	set(&c.State, p.State)
	set(&c.Notes, p.Notes)
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Search       string
	LowStockOnly bool
}

func (f ProductFilter) match(p Product) bool {
	if f.LowStockOnly && !p.LowStock() {
		return false
	}
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Category), q)
}

// StockValuation sums cost times stock over products with positive stock.
func StockValuation(products []Product) float64 {
	var total float64
	for _, p := range products {
		if p.Stock > 0 {
			total += p.Cost * float64(p.Stock)
		}
	}
	return total
}

// CategoryIndex maps product id to current category.
func CategoryIndex(products []Product) map[string]string {
	idx := make(map[string]string, len(products))
	for _, p := range products {
		idx[p.ID] = p.Category
	}
	return idx
}

// Categories lists the distinct product categories, sorted.
func Categories(products []Product) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range products {
		if _, ok := seen[p.Category]; ok || p.Category == "" {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}

func sortByName[T any](items []T, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(name(items[i])) < strings.ToLower(name(items[j]))
	})
}
