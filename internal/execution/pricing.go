package execution

import (
	"fmt"

	"crypto_exec/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CalculateLimitPrice offsets the reference price by slippagePercent so the
// limit order rests on the maker side of the book:
//   - LONG:  referencePrice * (1 - slippagePercent/100)
//   - SHORT: referencePrice * (1 + slippagePercent/100)
func CalculateLimitPrice(direction domain.Direction, referencePrice, slippagePercent decimal.Decimal) (decimal.Decimal, error) {
	if !referencePrice.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: reference price %s", domain.ErrInvalidPrice, referencePrice)
	}

	offset := slippagePercent.Div(hundred)
	switch direction {
	case domain.DirectionLong:
		return referencePrice.Mul(decimal.NewFromInt(1).Sub(offset)), nil
	case domain.DirectionShort:
		return referencePrice.Mul(decimal.NewFromInt(1).Add(offset)), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %d", domain.ErrInvalidDirection, direction)
	}
}
