package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/wealth-builder/internal/types"
)

func newTestOpponent(t *testing.T) *Opponent {
	profile, ok := types.Profile(types.DifficultyEasy)
	require.True(t, ok)
	return NewOpponent(profile, DefaultSettings())
}

func TestOpponentMonth(t *testing.T) {
	ai := newTestOpponent(t)
	assertDecimal(t, 200000, ai.NetWorth)

	// salary 50000 a month plus 8%/12 on the 65% invested, no perturbation and no bonus
	change := ai.Month(&scriptedRandom{})
	assert.Equal(t, "250866.67", ai.NetWorth.StringFixed(2))
	assert.Equal(t, "50866.67", change.StringFixed(2))
}

func TestOpponentMonthBonus(t *testing.T) {
	ai := newTestOpponent(t)

	// zero perturbation, a bonus roll under 8%, then the 10% multiplier
	ai.Month(&scriptedRandom{floats: []float64{0.5, 0.01}, ints: []int{2}})
	assert.Equal(t, "270866.67", ai.NetWorth.StringFixed(2))
}

func TestOpponentYear(t *testing.T) {
	ai := newTestOpponent(t)

	bonus := ai.Year()
	assertDecimal(t, 24000, bonus)
	assertDecimal(t, 224000, ai.NetWorth)
	// the AI's salary never changes
	assertDecimal(t, 600000, ai.Salary)
}

func TestOpponentDifficultyScalesInvestment(t *testing.T) {
	easy := newTestOpponent(t)
	hardProfile, _ := types.Profile(types.DifficultyHard)
	hard := NewOpponent(hardProfile, DefaultSettings())

	assert.Greater(t, hard.InvestmentRatio, easy.InvestmentRatio)
	assert.Greater(t, hard.BaseReturnRate, easy.BaseReturnRate)
}
