package game

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/user/wealth-builder/internal/types"
)

func lifeEvent(id, title, description string, cost int64, kind types.EventKind) types.GameEvent {
	return types.GameEvent{ID: id, Title: title, Description: description, Cost: decimal.NewFromInt(cost), Kind: kind}
}

var expenseEvents = []types.GameEvent{
	lifeEvent("wedding", "Family Wedding", "Your cousin is getting married! Contribute to the celebration.", 200000, types.EventExpense),
	lifeEvent("medical", "Medical Emergency", "Unexpected hospital visit for a family member.", 100000, types.EventExpense),
	lifeEvent("car-repair", "Car Breakdown", "The gearbox gave up on the highway.", 35000, types.EventExpense),
	lifeEvent("appliance", "Appliance Replacement", "The refrigerator and washing machine died in the same week.", 25000, types.EventExpense),
	lifeEvent("laptop", "Stolen Laptop", "Your work laptop was stolen and you must replace it.", 60000, types.EventExpense),
}

var incomeEvents = []types.GameEvent{
	lifeEvent("festival", "Diwali Bonus", "Received festival bonus from work!", 50000, types.EventIncome),
	lifeEvent("freelance", "Freelance Project", "A weekend side project paid out.", 30000, types.EventIncome),
	lifeEvent("tax-refund", "Tax Refund", "Your income tax refund was processed.", 15000, types.EventIncome),
	lifeEvent("inheritance", "Small Inheritance", "A distant relative remembered you in their will.", 150000, types.EventIncome),
}

// EventCatalog lists the life events the scheduler draws from
func EventCatalog() []types.GameEvent {
	out := make([]types.GameEvent, 0, len(expenseEvents)+len(incomeEvents))
	out = append(out, expenseEvents...)
	return append(out, incomeEvents...)
}

// Scheduler decides once per processed tick whether a life event fires
type Scheduler struct {
	GracePeriodMs      int64
	MinIntervalMs      int64
	ExpenseProbability float64
	IncomeProbability  float64

	// Game time of the last event of any kind
	LastEventAt int64
}

// NewScheduler creates a scheduler from the session settings
func NewScheduler(settings Settings) *Scheduler {
	return &Scheduler{
		GracePeriodMs:      settings.GracePeriodMs,
		MinIntervalMs:      settings.MinEventIntervalMs,
		ExpenseProbability: settings.ExpenseProbability,
		IncomeProbability:  settings.IncomeProbability,
	}
}

// Eligible reports whether an event may fire at game time elapsed
func (s *Scheduler) Eligible(elapsed int64, pending bool) bool {
	if pending || elapsed < s.GracePeriodMs {
		return false
	}
	return elapsed-s.LastEventAt >= s.MinIntervalMs
}

// Decide rolls for an event. It draws nothing when the scheduler is not eligible.
func (s *Scheduler) Decide(elapsed int64, pending bool, rng RandomSource) *types.GameEvent {
	if !s.Eligible(elapsed, pending) {
		return nil
	}

	var pool []types.GameEvent
	switch r := rng.Float64(); {
	case r < s.ExpenseProbability:
		pool = expenseEvents
	case r < s.ExpenseProbability+s.IncomeProbability:
		pool = incomeEvents
	default:
		return nil
	}

	event := pool[rng.Intn(len(pool))]
	event.ID = event.ID + "-" + uuid.NewString()[:8]
	s.LastEventAt = elapsed
	return &event
}
