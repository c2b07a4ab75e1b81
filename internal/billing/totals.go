package billing

// Totals are the derived money fields of a sale.
type Totals struct {
	TotalCost    float64 `json:"totalCost"`
	TotalPrice   float64 `json:"totalPrice"`
	TotalProfit  float64 `json:"totalProfit"`
	ProfitMargin float64 `json:"profitMargin"`
}

// ComputeSaleTotals sums line items. The margin is zero when the price is zero.
func ComputeSaleTotals(items []SaleItem) Totals {
	var t Totals
	var cost, price, profit Sum
	for _, item := range items {
		cost.Add(item.TotalCost)
		price.Add(item.TotalPrice)
		profit.Add(item.TotalPrice)
		profit.Sub(item.TotalCost)
	}
	t.TotalCost = cost.Cents()
	t.TotalPrice = price.Cents()
	t.TotalProfit = profit.Cents()
	t.ProfitMargin = marginOf(t.TotalPrice, t.TotalProfit)
	return t
}

// ComputeCommissionTotals treats the flat value as both price and profit.
func ComputeCommissionTotals(value float64) Totals {
	return Totals{
		TotalPrice:   value,
		TotalProfit:  value,
		ProfitMargin: marginOf(value, value),
	}
}

// TotalsFor dispatches on the sale type.
func TotalsFor(kind SaleType, items []SaleItem, flatValue float64) Totals {
	if kind == SaleTypeCommission {
		return ComputeCommissionTotals(flatValue)
	}
	return ComputeSaleTotals(items)
}

// Apply copies the totals onto a sale.
func (t Totals) Apply(s *Sale) {
	s.TotalCost = t.TotalCost
	s.TotalPrice = t.TotalPrice
	s.TotalProfit = t.TotalProfit
	s.ProfitMargin = t.ProfitMargin
}

// RecomputeTotals re-derives totals from the stored items. Commission items
// carry zero cost, so both sale types round-trip through the item sum.
func RecomputeTotals(s Sale) Totals {
	return ComputeSaleTotals(s.Items)
}
