package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionStatus is the lifecycle state of a game session
type SessionStatus string

const (
	StatusNotStarted SessionStatus = "not_started"
	StatusRunning    SessionStatus = "running"
	StatusPaused     SessionStatus = "paused"
	StatusGameOver   SessionStatus = "game_over"
)

// HoldingView is the read-only form of a ledger holding
type HoldingView struct {
	Asset     AssetID         `json:"asset"`
	Class     AssetClass      `json:"class"`
	Principal decimal.Decimal `json:"principal"`
	Profit    decimal.Decimal `json:"profit"`
	Value     decimal.Decimal `json:"value"`

	// Tradables only
	Quantity    decimal.Decimal `json:"quantity"`
	MarketValue decimal.Decimal `json:"market_value"`
}

// InstrumentView is the read-only form of a tradable instrument
type InstrumentView struct {
	ID               AssetID         `json:"id"`
	Class            AssetClass      `json:"class"`
	Name             string          `json:"name"`
	BasePrice        decimal.Decimal `json:"base_price"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	ChangePct        float64         `json:"change_pct"`
	AnnualizedReturn float64         `json:"annualized_return"`
	Volatility       float64         `json:"volatility"`
	FloorRatio       float64         `json:"floor_ratio"`
}

// StateView is an immutable copy of a session, safe to hand to other goroutines
type StateView struct {
	Status SessionStatus `json:"status"`

	// Difficulty is the profile of the game in play; NextDifficulty takes
	// effect at the next start
	Difficulty     Difficulty `json:"difficulty"`
	NextDifficulty Difficulty `json:"next_difficulty"`

	Cash          decimal.Decimal `json:"cash"`
	NetWorth      decimal.Decimal `json:"net_worth"`
	AINetWorth    decimal.Decimal `json:"ai_net_worth"`
	Salary        decimal.Decimal `json:"salary"`
	PassiveIncome decimal.Decimal `json:"passive_income"`

	Holdings    []HoldingView    `json:"holdings"`
	Instruments []InstrumentView `json:"instruments"`

	Year       int   `json:"year"`
	Month      int   `json:"month"`
	ElapsedMs  int64 `json:"elapsed_ms"`
	DurationMs int64 `json:"duration_ms"`

	Paused      bool `json:"paused"`
	ManualPause bool `json:"manual_pause"`
	ModalOpen   bool `json:"modal_open"`
	GameOver    bool `json:"game_over"`

	CurrentEvent *GameEvent      `json:"current_event,omitempty"`
	Events       []EventLogEntry `json:"events"`
	Result       *Result         `json:"result,omitempty"`
}

// Holding returns the view for one asset, or a zero view when the asset is not held
func (v StateView) Holding(id AssetID) HoldingView {
	for _, h := range v.Holdings {
		if h.Asset == id {
			return h
		}
	}
	return HoldingView{Asset: id}
}

// Instrument returns the view for one tradable
func (v StateView) Instrument(id AssetID) (InstrumentView, bool) {
	for _, inst := range v.Instruments {
		if inst.ID == id {
			return inst, true
		}
	}
	return InstrumentView{}, false
}

// Result is the final outcome of a finished game
type Result struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Difficulty    Difficulty      `json:"difficulty"`
	FinalNetWorth decimal.Decimal `json:"final_net_worth"`
	AINetWorth    decimal.Decimal `json:"ai_net_worth"`
	PassiveIncome decimal.Decimal `json:"passive_income"`
	Won           bool            `json:"won"`
	ReachedTarget bool            `json:"reached_target"`
	FinishedAt    time.Time       `json:"finished_at"`
}
