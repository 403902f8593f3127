package game

import (
	"github.com/shopspring/decimal"
	"github.com/user/wealth-builder/internal/types"
)

// Opponent is the AI player. It has no ledger, only a net worth that
// grows by salary, a noisy return on the invested share and random bonuses.
type Opponent struct {
	NetWorth decimal.Decimal
	Salary   decimal.Decimal

	InvestmentRatio float64
	BaseReturnRate  float64
	Volatility      float64

	BonusProbability float64
	BonusMultipliers []float64
	AnnualBonus      float64
}

// NewOpponent builds the AI for a difficulty, starting level with the player
func NewOpponent(profile types.DifficultyProfile, settings Settings) *Opponent {
	return &Opponent{
		NetWorth:         profile.StartingCash,
		Salary:           profile.Salary,
		InvestmentRatio:  profile.AIInvestmentRatio,
		BaseReturnRate:   profile.AIBaseReturnRate,
		Volatility:       profile.AIVolatility,
		BonusProbability: settings.AIBonusProbability,
		BonusMultipliers: settings.AIBonusMultipliers,
		AnnualBonus:      settings.AIAnnualBonus,
	}
}

// Month advances the AI one simulated month and returns the change in net worth
func (o *Opponent) Month(rng RandomSource) decimal.Decimal {
	before := o.NetWorth

	income := o.Salary.Div(decimal.NewFromInt(12))
	invested := o.NetWorth.Mul(decimal.NewFromFloat(o.InvestmentRatio))
	base := invested.Mul(decimal.NewFromFloat(o.BaseReturnRate / 12))
	ret := base.Mul(decimal.NewFromFloat(1 + uniform(rng)*o.Volatility))

	bonus := decimal.Zero
	if rng.Float64() < o.BonusProbability && len(o.BonusMultipliers) > 0 {
		m := o.BonusMultipliers[rng.Intn(len(o.BonusMultipliers))]
		bonus = o.NetWorth.Mul(decimal.NewFromFloat(m))
	}

	next := o.NetWorth.Add(income).Add(ret).Add(bonus).Round(2)
	o.NetWorth = decimal.Max(decimal.Zero, next)
	return o.NetWorth.Sub(before)
}

// Year applies the lump bonus paid at every simulated year boundary
func (o *Opponent) Year() decimal.Decimal {
	bonus := o.NetWorth.Mul(decimal.NewFromFloat(o.AnnualBonus)).Round(2)
	o.NetWorth = o.NetWorth.Add(bonus)
	return bonus
}
