// Package ledger does the money arithmetic for task payments.
package ledger

import (
	"github.com/garnizeh/devmarket/internal/apperr"
	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places kept for money amounts.
const Scale = 2

// Amount returns rate * hours rounded half-to-even to Scale places.
func Amount(rate, hours decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, apperr.Validationf("hourly rate must be positive, got %s", rate)
	}
	if !hours.IsPositive() {
		return decimal.Zero, apperr.Validationf("hours must be positive, got %s", hours)
	}

	return rate.Mul(hours).RoundBank(Scale), nil
}
