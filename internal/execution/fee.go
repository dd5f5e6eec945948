package execution

import (
	"crypto_exec/internal/domain"

	"github.com/shopspring/decimal"
)

// FeeCalculator applies the maker rate to limit fills and the taker rate to
// market fills.
type FeeCalculator struct {
	MakerRate decimal.Decimal
	TakerRate decimal.Decimal
}

// NewFeeCalculator creates a calculator with the given rates (fractions, not percent).
func NewFeeCalculator(makerRate, takerRate decimal.Decimal) FeeCalculator {
	return FeeCalculator{MakerRate: makerRate, TakerRate: takerRate}
}

// Rate returns the fee rate for orderType.
func (f FeeCalculator) Rate(orderType string) decimal.Decimal {
	if orderType == domain.OrderTypeLimit {
		return f.MakerRate
	}
	return f.TakerRate
}

// Calculate returns quantity * price * rate. Never negative.
func (f FeeCalculator) Calculate(quantity, price decimal.Decimal, orderType string) decimal.Decimal {
	fee := quantity.Mul(price).Mul(f.Rate(orderType)).Abs()
	return fee
}
