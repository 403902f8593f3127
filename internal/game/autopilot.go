package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/user/wealth-builder/internal/types"
	"go.uber.org/zap"
)

// Allocation directs a share of investable cash into one asset
type Allocation struct {
	Asset types.AssetID
	Share float64
}

// ParseAllocations reads "indexFund:0.5,TCS:0.2". Asset ids match
// regardless of case and the shares may not add up to more than 1.
func ParseAllocations(s string) ([]Allocation, error) {
	var out []Allocation
	total := 0.0
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, share, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("allocation %q: want asset:share", part)
		}

		spec, found := lookupAssetFold(strings.TrimSpace(name))
		if !found {
			return nil, fmt.Errorf("allocation %q: %w", part, ErrUnknownAsset)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(share), 64)
		if err != nil || f <= 0 || f > 1 {
			return nil, fmt.Errorf("allocation %q: share must be in (0,1]", part)
		}
		total += f
		out = append(out, Allocation{Asset: spec.ID, Share: f})
	}
	if total > 1+1e-9 {
		return nil, fmt.Errorf("allocations add up to %.2f, more than 1", total)
	}
	return out, nil
}

func lookupAssetFold(name string) (types.AssetSpec, bool) {
	for _, spec := range types.Catalog() {
		if strings.EqualFold(string(spec.ID), name) {
			return spec, true
		}
	}
	return types.AssetSpec{}, false
}

// Autopilot plays a session on the player's behalf. It settles every
// expense as soon as it fires and, after each settled month, spreads the
// cash above Reserve over its allocations.
type Autopilot struct {
	Allocations []Allocation
	Reserve     decimal.Decimal
	// Pay expenses by liquidating holdings when cash does not cover them
	Liquidate bool
}

// Act responds to what a tick produced
func (a *Autopilot) Act(s *Session, report TickReport) error {
	state := s.State()
	if event := state.CurrentEvent; event != nil && event.Kind == types.EventExpense {
		var err error
		if a.Liquidate && event.Cost.GreaterThan(state.Cash) {
			err = s.PayExpenseWithInvestments(event.ID)
		} else {
			err = s.PayExpenseWithCash(event.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to settle %s: %w", event.Title, err)
		}
		state = s.State()
	}

	if report.MonthsProcessed == 0 || state.GameOver {
		return nil
	}
	return a.invest(s, state)
}

func (a *Autopilot) invest(s *Session, state types.StateView) error {
	surplus := state.Cash.Sub(a.Reserve)
	if !surplus.IsPositive() {
		return nil
	}

	for _, alloc := range a.Allocations {
		amount := surplus.Mul(decimal.NewFromFloat(alloc.Share)).RoundDown(2)
		if !amount.IsPositive() {
			continue
		}

		spec, _ := types.LookupAsset(alloc.Asset)
		var err error
		if spec.Tradable() {
			inst, ok := state.Instrument(spec.ID)
			if !ok || !inst.CurrentPrice.IsPositive() {
				continue
			}
			quantity := amount.Div(inst.CurrentPrice).RoundDown(quantityPlaces)
			if !quantity.IsPositive() {
				continue
			}
			err = s.Buy(spec.Class, spec.ID, quantity)
		} else {
			err = s.Invest(spec.ID, amount)
		}

		// rounding can leave the last allocation a few paise short
		if err != nil && !errors.Is(err, ErrInsufficientCash) {
			return fmt.Errorf("failed to invest in %s: %w", spec.ID, err)
		}
	}
	return nil
}

// Simulation runs one session headless on a virtual wall clock
type Simulation struct {
	session *Session
	pilot   *Autopilot
	now     int64
	step    int64
	logger  *zap.Logger

	Ticks int
}

// NewSimulation prepares a started game. step is the virtual wall time
// between ticks and must not be below the minimum tick interval.
func NewSimulation(playerID string, difficulty types.Difficulty, settings Settings, seed int64, pilot *Autopilot, step int64, logger *zap.Logger) (*Simulation, error) {
	if step <= 0 || step < settings.MinTickIntervalMs {
		return nil, fmt.Errorf("step %dms is below the minimum tick interval of %dms", step, settings.MinTickIntervalMs)
	}
	if pilot == nil {
		pilot = &Autopilot{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sim := &Simulation{pilot: pilot, step: step, logger: logger}
	sim.session = NewSession(playerID, settings,
		WithRandom(NewSeededDiceRoller(seed)),
		WithNow(func() int64 { return sim.now }),
		WithLogger(logger))
	if err := sim.session.SetDifficulty(difficulty); err != nil {
		return nil, err
	}
	sim.session.Initialize()
	return sim, nil
}

// Session exposes the simulated session
func (sim *Simulation) Session() *Session {
	return sim.session
}

// Run ticks the session until the game ends and returns the final state
func (sim *Simulation) Run(ctx context.Context) (types.StateView, error) {
	// every tick either advances the clock or settles an expense
	maxTicks := 2*int(sim.session.settings.DurationMs/sim.step) + 1000

	for sim.Ticks = 0; sim.Ticks < maxTicks; sim.Ticks++ {
		if err := ctx.Err(); err != nil {
			return sim.session.State(), err
		}

		sim.now += sim.step
		report := sim.session.Advance(sim.now)
		for _, event := range report.NewEvents {
			sim.logger.Debug("Simulated event",
				zap.String("title", event.Title),
				zap.String("kind", string(event.Kind)),
				zap.String("cost", event.Cost.String()))
		}
		if report.GameOver {
			sim.Ticks++
			return sim.session.State(), nil
		}

		if err := sim.pilot.Act(sim.session, report); err != nil {
			return sim.session.State(), err
		}
	}
	return sim.session.State(), fmt.Errorf("simulation did not finish within %d ticks", maxTicks)
}
