package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/user/wealth-builder/config"
	"github.com/user/wealth-builder/internal/history"
	"github.com/user/wealth-builder/internal/types"
	"go.uber.org/zap"
)

// Settings are the tunable simulation constants shared by all sessions
type Settings struct {
	DurationMs         int64
	MinTickIntervalMs  int64
	GracePeriodMs      int64
	MinEventIntervalMs int64
	ExpenseProbability float64
	IncomeProbability  float64
	ReinvestShare      float64
	AIBonusProbability float64
	AIBonusMultipliers []float64
	AIAnnualBonus      float64
}

// SettingsFromConfig extracts the simulation constants from the game config
func SettingsFromConfig(g config.GameConfig) Settings {
	return Settings{
		DurationMs:         g.DurationMs,
		MinTickIntervalMs:  g.MinTickIntervalMs,
		GracePeriodMs:      g.GracePeriodMs,
		MinEventIntervalMs: g.MinEventIntervalMs,
		ExpenseProbability: g.ExpenseProbability,
		IncomeProbability:  g.IncomeProbability,
		ReinvestShare:      g.ReinvestShare,
		AIBonusProbability: g.AIBonusProbability,
		AIBonusMultipliers: append([]float64(nil), g.AIBonusMultipliers...),
		AIAnnualBonus:      g.AIAnnualBonus,
	}
}

// DefaultSettings returns the settings of the default configuration
func DefaultSettings() Settings {
	return SettingsFromConfig(config.DefaultConfig().Game)
}

// TickReport describes what one call to Advance did
type TickReport struct {
	// False when the tick was throttled or the session is idle
	Processed       bool
	MonthsProcessed int
	NewEvents       []types.GameEvent
	// Set only on the tick that ended the game
	GameOver bool
	Result   *types.Result
}

// Option configures a Session
type Option func(*Session)

// WithRandom replaces the random source
func WithRandom(rng RandomSource) Option {
	return func(s *Session) { s.rng = rng }
}

// WithNow replaces the wall clock used by commands, in Unix milliseconds
func WithNow(now func() int64) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the session logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

func wallNow() int64 {
	return time.Now().UnixMilli()
}

// Session is one player's game. Ticks and commands share one lock, so a
// reader never sees a half-applied tick or command.
type Session struct {
	mu       sync.Mutex
	playerID string
	settings Settings
	rng      RandomSource
	now      func() int64
	logger   *zap.Logger

	// difficulty takes effect at the next Initialize; profile is the running one
	difficulty types.Difficulty
	profile    types.DifficultyProfile

	started     bool
	gameOver    bool
	clock       Clock
	lastTick    int64
	manualPause bool
	modalOpen   bool

	market    *Market
	ledger    *Ledger
	ai        *Opponent
	scheduler *Scheduler

	salary        decimal.Decimal
	months        int
	passiveIncome decimal.Decimal
	currentEvent  *types.GameEvent
	events        []types.EventLogEntry
	result        *types.Result
}

// NewSession creates a session in the NotStarted state on easy difficulty
func NewSession(playerID string, settings Settings, opts ...Option) *Session {
	s := &Session{
		playerID:   playerID,
		settings:   settings,
		rng:        NewDiceRoller(),
		now:        wallNow,
		logger:     zap.NewNop(),
		difficulty: types.DifficultyEasy,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resetLocked()
	return s
}

// PlayerID returns the opaque identity the session belongs to
func (s *Session) PlayerID() string {
	return s.playerID
}

// resetLocked discards all game state and rebuilds it from the selected difficulty
func (s *Session) resetLocked() {
	profile, _ := types.Profile(s.difficulty)
	s.profile = profile
	s.started = false
	s.gameOver = false
	s.clock = Clock{}
	s.lastTick = 0
	s.manualPause = false
	s.modalOpen = false
	s.market = NewMarket()
	s.ledger = NewLedger(profile.StartingCash, s.market)
	s.ai = NewOpponent(profile, s.settings)
	s.scheduler = NewScheduler(s.settings)
	s.salary = profile.Salary
	s.months = 0
	s.passiveIncome = decimal.Zero
	s.currentEvent = nil
	s.events = nil
	s.result = nil
}

// SetDifficulty selects the profile used by the next Initialize
func (s *Session) SetDifficulty(d types.Difficulty) error {
	if _, ok := types.Profile(d); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDifficulty, d)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.difficulty = d
	if !s.started {
		s.resetLocked()
	}
	return nil
}

// Initialize starts a fresh game, discarding any previous one
func (s *Session) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	now := s.now()
	s.clock = NewClock(now)
	s.lastTick = now
	s.started = true

	s.logger.Info("Game initialized",
		zap.String("player_id", s.playerID),
		zap.String("difficulty", string(s.difficulty)),
		zap.String("cash", s.ledger.Cash.String()))
}

// Reset abandons the current game and returns to NotStarted
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) monthMs() int64 {
	months := int64(s.profile.TimeHorizonYears * 12)
	if months <= 0 {
		months = 1
	}
	if ms := s.settings.DurationMs / months; ms > 0 {
		return ms
	}
	return 1
}

// monthsDue counts the month boundaries reached so far, excluding one that
// would fall on the end of the game
func (s *Session) monthsDue() int {
	monthMs := s.monthMs()
	due := int(s.clock.Elapsed / monthMs)
	if last := int((s.settings.DurationMs - 1) / monthMs); due > last {
		due = last
	}
	return due
}

// Advance is the tick entry point. Hosts may call it at any cadence; calls
// closer together than the minimum tick interval are ignored.
func (s *Session) Advance(now int64) TickReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report TickReport
	if !s.started || s.gameOver {
		return report
	}
	if now-s.lastTick < s.settings.MinTickIntervalMs {
		return report
	}
	s.lastTick = now
	report.Processed = true

	s.clock.Advance(now)
	if s.clock.Paused {
		return report
	}

	if s.clock.Done(s.settings.DurationMs) {
		s.settleMonths(now, &report)
		s.finishLocked(now)
		report.GameOver = true
		report.Result = s.resultCopy()
		return report
	}

	if event := s.scheduler.Decide(s.clock.Elapsed, s.currentEvent != nil, s.rng); event != nil {
		s.applyEventLocked(*event, now)
		report.NewEvents = append(report.NewEvents, *event)
	}

	s.settleMonths(now, &report)
	s.ledger.UpdateNetWorth()
	return report
}

// settleMonths runs the monthly reconciliation for every boundary crossed
// since the last one processed
func (s *Session) settleMonths(now int64, report *TickReport) {
	for due := s.monthsDue(); s.months < due; {
		s.processMonthLocked(now)
		report.MonthsProcessed++
	}
}

func (s *Session) processMonthLocked(now int64) {
	s.market.Tick(s.rng)
	s.passiveIncome = s.ledger.AccrueReturns(s.rng, s.settings.ReinvestShare)
	s.ledger.Credit(s.salary.Div(decimal.NewFromInt(12)).Round(2))

	// the AI sits out while the player is dealing with an expense
	if !s.modalOpen {
		s.ai.Month(s.rng)
	}

	s.months++
	if s.months%12 == 0 {
		s.yearEndLocked(now)
	}
	s.ledger.UpdateNetWorth()
}

func (s *Session) yearEndLocked(now int64) {
	raise := s.salary.Mul(decimal.NewFromFloat(s.profile.SalaryIncrement)).Round(2)
	s.salary = s.salary.Add(raise)
	year := s.months / 12

	s.events = append(s.events, types.EventLogEntry{
		Event: types.GameEvent{
			ID:          fmt.Sprintf("appraisal-%d", year),
			Title:       "Annual Appraisal",
			Description: fmt.Sprintf("Your salary rose by %.0f%% to %s a year.", s.profile.SalaryIncrement*100, s.salary.StringFixed(0)),
			Cost:        raise,
			Kind:        types.EventIncome,
		},
		GameTimeMs: s.clock.Elapsed,
		Year:       year,
		Month:      12,
		Resolution: types.ResolutionCredited,
	})
	// the appraisal counts as an event for the scheduler's cooldown
	s.scheduler.LastEventAt = s.clock.Elapsed
	s.ai.Year()

	s.logger.Debug("Year closed",
		zap.String("player_id", s.playerID),
		zap.Int("year", year),
		zap.String("salary", s.salary.String()),
		zap.String("ai_net_worth", s.ai.NetWorth.String()))
}

func (s *Session) finishLocked(now int64) {
	s.gameOver = true
	s.ledger.UpdateNetWorth()

	target := s.profile.PassiveIncomeTarget
	s.result = &types.Result{
		ID:            history.NewID(),
		UserID:        s.playerID,
		Difficulty:    s.profile.Difficulty,
		FinalNetWorth: s.ledger.NetWorth,
		AINetWorth:    s.ai.NetWorth,
		PassiveIncome: s.passiveIncome,
		Won:           s.ledger.NetWorth.GreaterThan(s.ai.NetWorth),
		ReachedTarget: s.passiveIncome.GreaterThanOrEqual(target),
		FinishedAt:    time.UnixMilli(now).UTC(),
	}

	s.logger.Info("Game over",
		zap.String("player_id", s.playerID),
		zap.String("net_worth", s.ledger.NetWorth.String()),
		zap.String("ai_net_worth", s.ai.NetWorth.String()),
		zap.Bool("won", s.result.Won))
}

func (s *Session) resultCopy() *types.Result {
	if s.result == nil {
		return nil
	}
	r := *s.result
	return &r
}

// syncPauseLocked pauses the clock whenever the player asked for a pause or
// an expense is waiting to be paid
func (s *Session) syncPauseLocked(now int64) {
	s.clock.SetPaused(s.manualPause || s.modalOpen, now)
}

func (s *Session) calendar() (year, month int) {
	return s.months/12 + 1, s.months%12 + 1
}

func (s *Session) applyEventLocked(event types.GameEvent, now int64) {
	year, month := s.calendar()
	entry := types.EventLogEntry{
		Event:      event,
		GameTimeMs: s.clock.Elapsed,
		Year:       year,
		Month:      month,
	}

	switch event.Kind {
	case types.EventExpense:
		entry.Resolution = types.ResolutionPending
		s.currentEvent = &event
		s.modalOpen = true
		s.syncPauseLocked(now)
	case types.EventIncome:
		entry.Resolution = types.ResolutionCredited
		s.ledger.Credit(event.Cost)
	default:
		entry.Resolution = types.ResolutionNoted
	}
	s.events = append(s.events, entry)

	s.logger.Debug("Life event",
		zap.String("player_id", s.playerID),
		zap.String("event_id", event.ID),
		zap.String("kind", string(event.Kind)),
		zap.String("cost", event.Cost.String()))
}

func (s *Session) guardLocked() error {
	if s.gameOver {
		return ErrGameOver
	}
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

func (s *Session) command(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(); err != nil {
		return err
	}
	return fn()
}

// Invest moves cash into a non-tradable asset
func (s *Session) Invest(asset types.AssetID, amount decimal.Decimal) error {
	return s.command(func() error { return s.ledger.Invest(asset, amount) })
}

// Withdraw moves money from a non-tradable asset back to cash
func (s *Session) Withdraw(asset types.AssetID, amount decimal.Decimal) error {
	return s.command(func() error { return s.ledger.Withdraw(asset, amount) })
}

// Buy purchases units of a tradable of the given class
func (s *Session) Buy(class types.AssetClass, symbol types.AssetID, quantity decimal.Decimal) error {
	return s.command(func() error { return s.ledger.Buy(class, symbol, quantity) })
}

// Sell disposes of units of a tradable of the given class
func (s *Session) Sell(class types.AssetClass, symbol types.AssetID, quantity decimal.Decimal) error {
	return s.command(func() error { return s.ledger.Sell(class, symbol, quantity) })
}

func (s *Session) BuyStock(symbol types.AssetID, quantity decimal.Decimal) error {
	return s.Buy(types.ClassStock, symbol, quantity)
}

func (s *Session) BuyCrypto(symbol types.AssetID, quantity decimal.Decimal) error {
	return s.Buy(types.ClassCrypto, symbol, quantity)
}

func (s *Session) BuyRealEstate(symbol types.AssetID, quantity decimal.Decimal) error {
	return s.Buy(types.ClassRealEstate, symbol, quantity)
}

func (s *Session) SellStock(symbol types.AssetID, quantity decimal.Decimal) error {
	return s.Sell(types.ClassStock, symbol, quantity)
}

func (s *Session) SellCrypto(symbol types.AssetID, quantity decimal.Decimal) error {
	return s.Sell(types.ClassCrypto, symbol, quantity)
}

func (s *Session) SellRealEstate(symbol types.AssetID, quantity decimal.Decimal) error {
	return s.Sell(types.ClassRealEstate, symbol, quantity)
}

// SetPaused is the host's pause/resume control. An unpaid expense keeps the
// clock frozen even after a resume.
func (s *Session) SetPaused(paused bool) error {
	return s.command(func() error {
		s.manualPause = paused
		s.syncPauseLocked(s.now())
		return nil
	})
}

// TriggerEvent injects a scripted life event with the same effects as a
// scheduled one
func (s *Session) TriggerEvent(event types.GameEvent) error {
	return s.command(func() error {
		switch event.Kind {
		case types.EventExpense, types.EventIncome, types.EventOpportunity:
		default:
			return fmt.Errorf("%w: kind %q", ErrInvalidEvent, event.Kind)
		}
		if event.Cost.IsNegative() {
			return fmt.Errorf("%w: negative cost", ErrInvalidEvent)
		}
		if event.Kind == types.EventExpense && s.currentEvent != nil {
			return ErrEventPending
		}
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		s.scheduler.LastEventAt = s.clock.Elapsed
		s.applyEventLocked(event, s.now())
		return nil
	})
}

func (s *Session) pendingLocked(eventID string) (*types.GameEvent, error) {
	if s.currentEvent == nil {
		return nil, ErrNoPendingEvent
	}
	if eventID != "" && eventID != s.currentEvent.ID {
		return nil, ErrEventMismatch
	}
	return s.currentEvent, nil
}

func (s *Session) resolveLocked(event *types.GameEvent, how types.Resolution) {
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].Event.ID == event.ID && s.events[i].Resolution == types.ResolutionPending {
			s.events[i].Resolution = how
			break
		}
	}
	s.currentEvent = nil
	s.modalOpen = false
	s.syncPauseLocked(s.now())
}

// PayExpenseWithCash settles the pending expense from cash, which may go negative
func (s *Session) PayExpenseWithCash(eventID string) error {
	return s.command(func() error {
		event, err := s.pendingLocked(eventID)
		if err != nil {
			return err
		}
		s.ledger.Debit(event.Cost)
		s.resolveLocked(event, types.ResolutionCash)
		return nil
	})
}

// PayExpenseWithInvestments liquidates holdings to cover the pending expense.
// Whatever the holdings cannot cover comes out of cash, which may go negative.
func (s *Session) PayExpenseWithInvestments(eventID string) error {
	return s.command(func() error {
		event, err := s.pendingLocked(eventID)
		if err != nil {
			return err
		}
		s.ledger.Liquidate(event.Cost)
		s.ledger.Debit(event.Cost)
		s.resolveLocked(event, types.ResolutionInvestments)
		return nil
	})
}

func (s *Session) statusLocked() types.SessionStatus {
	switch {
	case s.gameOver:
		return types.StatusGameOver
	case !s.started:
		return types.StatusNotStarted
	case s.clock.Paused:
		return types.StatusPaused
	default:
		return types.StatusRunning
	}
}

// Status returns the lifecycle state
func (s *Session) Status() types.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Result returns the final outcome once the game is over
func (s *Session) Result() *types.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultCopy()
}

// State returns a consistent read-only copy of the session
func (s *Session) State() types.StateView {
	s.mu.Lock()
	defer s.mu.Unlock()

	year, month := s.calendar()
	view := types.StateView{
		Status:         s.statusLocked(),
		Difficulty:     s.profile.Difficulty,
		NextDifficulty: s.difficulty,

		Cash:          s.ledger.Cash,
		NetWorth:      s.ledger.NetWorth,
		AINetWorth:    s.ai.NetWorth,
		Salary:        s.salary,
		PassiveIncome: s.passiveIncome,
		Holdings:      s.ledger.views(),
		Instruments:   s.market.views(),
		Year:          year,
		Month:         month,
		ElapsedMs:     s.clock.Elapsed,
		DurationMs:    s.settings.DurationMs,
		Paused:        s.clock.Paused,
		ManualPause:   s.manualPause,
		ModalOpen:     s.modalOpen,
		GameOver:      s.gameOver,
		Events:        append([]types.EventLogEntry(nil), s.events...),
		Result:        s.resultCopy(),
	}
	if s.currentEvent != nil {
		event := *s.currentEvent
		view.CurrentEvent = &event
	}
	return view
}
