// Package rate computes the commerce fee owed for a declared amount.
package rate

import (
	"ddjj/internal/model"

	"github.com/shopspring/decimal"
)

// FeePlaces is the number of decimal places fees are rounded to. Rounding is
// half away from zero and happens once, after floor and discount are applied.
const FeePlaces int32 = 2

// ComputeFee applies the configured rate to declaredAmount with a minimum
// billable floor of DefaultAmount; good taxpayers get GoodTaxpayerDiscount off
// whichever of the two applies. Callers validate declaredAmount > 0.
func ComputeFee(declaredAmount decimal.Decimal, cfg model.Configuration, goodTaxpayer bool) decimal.Decimal {
	fee := declaredAmount.Mul(cfg.CurrentRate)
	if fee.LessThan(cfg.DefaultAmount) {
		fee = cfg.DefaultAmount
	}

	if goodTaxpayer {
		fee = fee.Sub(fee.Mul(cfg.GoodTaxpayerDiscount))
	}

	return fee.Round(FeePlaces)
}
