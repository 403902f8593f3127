package game

import (
	"math/rand"
	"sync"
	"time"
)

// RandomSource supplies every random draw the simulation makes.
// Tests substitute a scripted source to pin exact outcomes.
type RandomSource interface {
	// Float64 returns a value in [0, 1)
	Float64() float64
	// Intn returns a value in [0, n)
	Intn(n int) int
}

// DiceRoller is the default RandomSource, a seeded generator safe for concurrent use
type DiceRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDiceRoller creates a new dice roller with a time seeded random number generator
func NewDiceRoller() *DiceRoller {
	return NewSeededDiceRoller(time.Now().UnixNano())
}

// NewSeededDiceRoller creates a dice roller whose sequence is fixed by seed
func NewSeededDiceRoller(seed int64) *DiceRoller {
	return &DiceRoller{
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (dr *DiceRoller) Float64() float64 {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	return dr.rng.Float64()
}

func (dr *DiceRoller) Intn(n int) int {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	return dr.rng.Intn(n)
}

// uniform draws from [-1, 1)
func uniform(r RandomSource) float64 {
	return r.Float64()*2 - 1
}
