package commission

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Calculate computes the commission owed on a settled inbound amount using
// integer arithmetic on minor units: both amount and percentage are converted
// to integer cents / basis points before multiplying, so repeated runs never
// drift the way binary floating point does. The result is truncated to the
// cent (Calculate(100.10, 2.5) == 2.50, Calculate(33.33, 1) == 0.33).
func Calculate(amount, percent decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount must not be negative, got %s", amount)
	}
	if percent.IsNegative() {
		return decimal.Zero, fmt.Errorf("percent must not be negative, got %s", percent)
	}

	// amount -> cents, percent -> basis points. Truncate first so malformed
	// sub-cent inputs cannot inflate the fee.
	amountCents := amount.Shift(2).Truncate(0)
	basisPoints := percent.Shift(2).Truncate(0)

	// cents * bp / 10000, truncated back to whole cents.
	commissionCents := amountCents.Mul(basisPoints).Div(decimal.NewFromInt(10000)).Truncate(0)
	return commissionCents.Shift(-2), nil
}
