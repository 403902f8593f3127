package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Difficulty selects the starting conditions and the AI opponent's tuning
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DifficultyProfile is fixed for the lifetime of a game
type DifficultyProfile struct {
	Difficulty          Difficulty      `json:"difficulty"`
	Salary              decimal.Decimal `json:"salary"`
	StartingCash        decimal.Decimal `json:"starting_cash"`
	PassiveIncomeTarget decimal.Decimal `json:"passive_income_target"`
	TimeHorizonYears    int             `json:"time_horizon_years"`

	// Annual salary raise applied at each simulated year boundary
	SalaryIncrement float64 `json:"salary_increment"`

	// AI opponent tuning
	AIInvestmentRatio float64 `json:"ai_investment_ratio"`
	AIBaseReturnRate  float64 `json:"ai_base_return_rate"`
	AIVolatility      float64 `json:"ai_volatility"`
}

var profiles = map[Difficulty]DifficultyProfile{
	DifficultyEasy: {
		Difficulty:          DifficultyEasy,
		Salary:              decimal.NewFromInt(600000),
		StartingCash:        decimal.NewFromInt(200000),
		PassiveIncomeTarget: decimal.NewFromInt(30000),
		TimeHorizonYears:    10,
		SalaryIncrement:     0.08,
		AIInvestmentRatio:   0.65,
		AIBaseReturnRate:    0.08,
		AIVolatility:        0.2,
	},
	DifficultyMedium: {
		Difficulty:          DifficultyMedium,
		Salary:              decimal.NewFromInt(480000),
		StartingCash:        decimal.NewFromInt(150000),
		PassiveIncomeTarget: decimal.NewFromInt(40000),
		TimeHorizonYears:    10,
		SalaryIncrement:     0.06,
		AIInvestmentRatio:   0.80,
		AIBaseReturnRate:    0.10,
		AIVolatility:        0.3,
	},
	DifficultyHard: {
		Difficulty:          DifficultyHard,
		Salary:              decimal.NewFromInt(360000),
		StartingCash:        decimal.NewFromInt(100000),
		PassiveIncomeTarget: decimal.NewFromInt(50000),
		TimeHorizonYears:    10,
		SalaryIncrement:     0.05,
		AIInvestmentRatio:   0.90,
		AIBaseReturnRate:    0.12,
		AIVolatility:        0.4,
	},
}

// Profile returns the built-in profile for a difficulty
func Profile(d Difficulty) (DifficultyProfile, bool) {
	p, ok := profiles[d]
	return p, ok
}

// ParseDifficulty normalizes user input such as "Easy" or " hard "
func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	_, ok := profiles[d]
	return d, ok
}
