package types

import "github.com/shopspring/decimal"

// EventKind classifies a life event
type EventKind string

const (
	EventExpense     EventKind = "expense"
	EventIncome      EventKind = "income"
	EventOpportunity EventKind = "opportunity"
)

// GameEvent is a life event drawn by the scheduler or injected by the host.
// Cost is the amount paid for expenses and the amount credited for income.
type GameEvent struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
	Kind        EventKind       `json:"kind"`
}

// Resolution records how a logged event was settled
type Resolution string

const (
	ResolutionPending     Resolution = "pending"
	ResolutionCash        Resolution = "cash"
	ResolutionInvestments Resolution = "investments"
	ResolutionCredited    Resolution = "credited"
	ResolutionNoted       Resolution = "noted"
)

// EventLogEntry is one line of a session's event history
type EventLogEntry struct {
	Event      GameEvent  `json:"event"`
	GameTimeMs int64      `json:"game_time_ms"`
	Year       int        `json:"year"`
	Month      int        `json:"month"`
	Resolution Resolution `json:"resolution"`
}
