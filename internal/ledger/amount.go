package ledger

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// AmountPrecision is the number of fractional digits in one base unit (wei).
const AmountPrecision = 18

// MaxAmount is the largest value any counter may hold: 2^256-1 base units.
var MaxAmount = func() decimal.Decimal {
	maxUnits := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	return decimal.NewFromBigInt(maxUnits, -AmountPrecision)
}()

// maxMagnitude is the decimal exponent of MaxAmount's leading digit.
var maxMagnitude = int64(MaxAmount.NumDigits()) + int64(MaxAmount.Exponent()) - 1

// ValidateAmount rejects amounts that can't be held by a ledger counter.
//
// The exponent is bounded against the coefficient's digit count before any
// comparison. Comparing or truncating rescales to a shared exponent, which
// costs O(|exponent|).
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: negative", ErrInvalidAmount)
	}
	if amount.IsZero() {
		return nil
	}

	digits := int64(amount.NumDigits())
	exp := int64(amount.Exponent())

	// value >= 10^(exp+digits-1)
	if exp+digits-1 > maxMagnitude {
		return fmt.Errorf("%w: exceeds the maximum", ErrInvalidAmount)
	}
	// a coefficient has at most digits-1 trailing zeros
	if exp+digits-1 < -AmountPrecision {
		return fmt.Errorf("%w: finer than %d decimal places", ErrInvalidAmount, AmountPrecision)
	}

	if !amount.Equal(amount.Truncate(AmountPrecision)) {
		return fmt.Errorf("%w: finer than %d decimal places", ErrInvalidAmount, AmountPrecision)
	}
	if amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: exceeds the maximum", ErrInvalidAmount)
	}
	return nil
}

// canonical maps every zero to decimal.Zero so later arithmetic never
// rescales to an exponent carried only by a zero.
func canonical(amount decimal.Decimal) decimal.Decimal {
	if amount.IsZero() {
		return decimal.Zero
	}
	return amount
}

// checkedAdd returns a+b, refusing to exceed MaxAmount.
func checkedAdd(a, b decimal.Decimal) (decimal.Decimal, error) {
	sum := a.Add(b)
	if sum.GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: result overflows", ErrInvalidAmount)
	}
	return sum, nil
}

// checkedSub returns a-b, or insufficient if b > a.
func checkedSub(a, b decimal.Decimal, insufficient error) (decimal.Decimal, error) {
	if b.GreaterThan(a) {
		return decimal.Zero, insufficient
	}
	return a.Sub(b), nil
}
