package game

import (
	"github.com/shopspring/decimal"
	"github.com/user/wealth-builder/internal/types"
)

// MonthlyRate turns an annual rate into one month's rate perturbed by
// up to ±volatility of itself. Volatility above 1 allows loss months.
func MonthlyRate(annualRate, volatility float64, rng RandomSource) float64 {
	return annualRate / 12 * (1 + volatility*uniform(rng))
}

// accrue books one month of return on h at rate. The reinvestShare part
// compounds into profit and the remainder is returned as a cash dividend.
// A loss only eats into profit, which stops at zero, and pays no dividend.
func accrue(h *Holding, rate, reinvestShare float64) decimal.Decimal {
	total := h.Value().Mul(decimal.NewFromFloat(rate)).Round(2)
	compounding := total.Mul(decimal.NewFromFloat(reinvestShare)).Round(2)

	if total.IsNegative() {
		h.Profit = decimal.Max(decimal.Zero, h.Profit.Add(compounding))
		return decimal.Zero
	}

	h.Profit = h.Profit.Add(compounding)
	return total.Sub(compounding)
}

// AccrueReturns runs one month of returns over every non-tradable holding
// with principal, credits the dividends to cash and returns their total
func (l *Ledger) AccrueReturns(rng RandomSource, reinvestShare float64) decimal.Decimal {
	dividends := decimal.Zero
	for _, spec := range types.Catalog() {
		if spec.Tradable() {
			continue
		}
		h := l.holdings[spec.ID]
		if !h.Principal.IsPositive() {
			continue
		}
		rate := MonthlyRate(spec.AnnualRate, spec.Volatility, rng)
		dividends = dividends.Add(accrue(h, rate, reinvestShare))
	}
	l.Cash = l.Cash.Add(dividends)
	l.UpdateNetWorth()
	return dividends
}
