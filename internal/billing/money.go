package billing

import "github.com/shopspring/decimal"

// RoundCents rounds half away from zero to two decimal places.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// ClampDownPayment limits the down payment to the range [0, total].
func ClampDownPayment(downPayment, total float64) float64 {
	if downPayment < 0 {
		return 0
	}
	if downPayment > total {
		return total
	}
	return downPayment
}

// SplitEvenly divides amount into n parcels of whole cents. Every parcel but
// the last gets the truncated share; the last absorbs the remainder so the
// parts always add up to the rounded amount.
func SplitEvenly(amount float64, n int) []float64 {
	if n < 1 {
		n = 1
	}
	total := decimal.NewFromFloat(amount).Round(2)
	share := total.Div(decimal.NewFromInt(int64(n))).Truncate(2)
	values := make([]float64, n)
	for i := 0; i < n-1; i++ {
		values[i] = share.InexactFloat64()
	}
	values[n-1] = total.Sub(share.Mul(decimal.NewFromInt(int64(n - 1)))).InexactFloat64()
	return values
}

// Sum accumulates money amounts without float drift. The zero value is an
// empty sum.
type Sum struct {
	total decimal.Decimal
}

// Add adds v to the sum.
func (s *Sum) Add(v float64) {
	s.total = s.total.Add(decimal.NewFromFloat(v))
}

// Sub subtracts v from the sum.
func (s *Sum) Sub(v float64) {
	s.total = s.total.Sub(decimal.NewFromFloat(v))
}

// Cents reports the sum rounded to cents.
func (s Sum) Cents() float64 {
	return s.total.Round(2).InexactFloat64()
}

func marginOf(price, profit float64) float64 {
	if price <= 0 {
		return 0
	}
	margin, _ := decimal.NewFromFloat(profit).Div(decimal.NewFromFloat(price)).Mul(decimal.NewFromInt(100)).Float64()
	return margin
}
