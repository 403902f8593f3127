package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/user/wealth-builder/config"
	"github.com/user/wealth-builder/internal/history"
	"github.com/user/wealth-builder/internal/interfaces"
	"github.com/user/wealth-builder/internal/metrics"
	"github.com/user/wealth-builder/internal/types"
	"go.uber.org/zap"
)

const storageTimeout = 5 * time.Second

// GameManager owns one session per player and drives them all from a
// single tick loop
type GameManager struct {
	sessions      map[string]*Session
	stateLock     sync.RWMutex
	config        config.Config
	settings      Settings
	Logger        *zap.Logger
	storage       SnapshotStore
	history       history.Store
	metrics       *metrics.Metrics
	messageSender interfaces.MessageSender
	tickLoop      *TickLoop

	now       func() int64
	newRandom func() RandomSource
}

// Ensure GameManager satisfies the interfaces.GameManager interface
var _ interfaces.GameManager = (*GameManager)(nil)

// NewGameManager creates a manager with no storage or history attached.
// Sessions live in memory until SetStorage is called.
func NewGameManager(cfg config.Config) *GameManager {
	gm := &GameManager{
		sessions:  make(map[string]*Session),
		config:    cfg,
		settings:  SettingsFromConfig(cfg.Game),
		Logger:    zap.NewNop(), // Will be set by the server
		now:       wallNow,
		newRandom: func() RandomSource { return NewDiceRoller() },
	}

	saveEvery := time.Duration(cfg.Storage.SaveInterval) * time.Second
	gm.tickLoop = NewTickLoop(gm, cfg.Game.TickInterval(), saveEvery)

	return gm
}

// SetLogger sets the logger used by the manager and the sessions it creates
func (gm *GameManager) SetLogger(logger *zap.Logger) {
	gm.Logger = logger
}

// SetStorage attaches the snapshot store
func (gm *GameManager) SetStorage(storage SnapshotStore) {
	gm.storage = storage
}

// SetHistory attaches the result history store
func (gm *GameManager) SetHistory(store history.Store) {
	gm.history = store
}

// SetMetrics attaches the Prometheus collectors
func (gm *GameManager) SetMetrics(m *metrics.Metrics) {
	gm.metrics = m
}

// SetMessageSender sets the message sender
func (gm *GameManager) SetMessageSender(sender interfaces.MessageSender) {
	gm.messageSender = sender
}

// SetClock replaces the wall clock handed to new sessions
func (gm *GameManager) SetClock(now func() int64) {
	gm.now = now
}

// SetRandomFactory replaces the random source handed to new sessions
func (gm *GameManager) SetRandomFactory(newRandom func() RandomSource) {
	gm.newRandom = newRandom
}

func (gm *GameManager) sessionOptions() []Option {
	return []Option{
		WithNow(gm.now),
		WithRandom(gm.newRandom()),
		WithLogger(gm.Logger),
	}
}

// LoadSessions restores every stored snapshot. Snapshots that fail to
// restore are logged and skipped.
func (gm *GameManager) LoadSessions(ctx context.Context) (int, error) {
	if gm.storage == nil {
		return 0, nil
	}

	players, err := gm.storage.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list snapshots: %w", err)
	}

	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	loaded := 0
	for _, playerID := range players {
		snap, err := gm.storage.Load(ctx, playerID)
		if err != nil {
			gm.Logger.Error("Failed to load snapshot",
				zap.String("player_id", playerID),
				zap.Error(err))
			continue
		}

		session, err := RestoreSession(snap, gm.settings, gm.sessionOptions()...)
		if err != nil {
			gm.Logger.Error("Failed to restore session",
				zap.String("player_id", playerID),
				zap.Error(err))
			continue
		}

		gm.sessions[session.PlayerID()] = session
		loaded++
	}

	gm.metrics.SetActiveSessions(len(gm.sessions))
	return loaded, nil
}

func (gm *GameManager) session(playerID string) (*Session, error) {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()

	session, exists := gm.sessions[playerID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// PlayerIDs returns the ids of all sessions in a stable order
func (gm *GameManager) PlayerIDs() []string {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()

	ids := make([]string, 0, len(gm.sessions))
	for id := range gm.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StartGame starts a fresh game for the player, creating the session on
// first use. An empty difficulty keeps the session's current selection.
func (gm *GameManager) StartGame(playerID string, difficulty types.Difficulty) (types.StateView, error) {
	if playerID == "" {
		return types.StateView{}, fmt.Errorf("%w: empty player id", ErrSessionNotFound)
	}

	gm.stateLock.Lock()
	session, exists := gm.sessions[playerID]
	if !exists {
		session = NewSession(playerID, gm.settings, gm.sessionOptions()...)
		if def, ok := types.ParseDifficulty(gm.config.Game.DefaultDifficulty); ok {
			session.SetDifficulty(def)
		}
		gm.sessions[playerID] = session
		gm.metrics.SetActiveSessions(len(gm.sessions))
	}
	gm.stateLock.Unlock()

	if difficulty != "" {
		if err := session.SetDifficulty(difficulty); err != nil {
			gm.metrics.ObserveRejection("start")
			return types.StateView{}, err
		}
	}
	session.Initialize()
	gm.persist(session)

	return session.State(), nil
}

// GetState returns the player's state view
func (gm *GameManager) GetState(playerID string) (types.StateView, error) {
	session, err := gm.session(playerID)
	if err != nil {
		return types.StateView{}, err
	}
	return session.State(), nil
}

// apply runs a player command and persists the session when it succeeds
func (gm *GameManager) apply(playerID, command string, fn func(*Session) error) (types.StateView, error) {
	session, err := gm.session(playerID)
	if err != nil {
		return types.StateView{}, err
	}

	if err := fn(session); err != nil {
		if IsRejection(err) {
			gm.metrics.ObserveRejection(command)
		}
		gm.Logger.Debug("Command rejected",
			zap.String("player_id", playerID),
			zap.String("command", command),
			zap.Error(err))
		return types.StateView{}, err
	}

	gm.persist(session)
	return session.State(), nil
}

func (gm *GameManager) Invest(playerID string, asset types.AssetID, amount decimal.Decimal) (types.StateView, error) {
	return gm.apply(playerID, "invest", func(s *Session) error { return s.Invest(asset, amount) })
}

func (gm *GameManager) Withdraw(playerID string, asset types.AssetID, amount decimal.Decimal) (types.StateView, error) {
	return gm.apply(playerID, "withdraw", func(s *Session) error { return s.Withdraw(asset, amount) })
}

func (gm *GameManager) Buy(playerID string, class types.AssetClass, symbol types.AssetID, quantity decimal.Decimal) (types.StateView, error) {
	return gm.apply(playerID, "buy", func(s *Session) error { return s.Buy(class, symbol, quantity) })
}

func (gm *GameManager) Sell(playerID string, class types.AssetClass, symbol types.AssetID, quantity decimal.Decimal) (types.StateView, error) {
	return gm.apply(playerID, "sell", func(s *Session) error { return s.Sell(class, symbol, quantity) })
}

// SetPaused pauses or resumes the player's clock
func (gm *GameManager) SetPaused(playerID string, paused bool) (types.StateView, error) {
	command := "resume"
	if paused {
		command = "pause"
	}
	return gm.apply(playerID, command, func(s *Session) error { return s.SetPaused(paused) })
}

// PayExpense settles the pending expense from cash or by liquidating holdings
func (gm *GameManager) PayExpense(playerID, eventID string, withInvestments bool) (types.StateView, error) {
	if withInvestments {
		return gm.apply(playerID, "pay_investments", func(s *Session) error { return s.PayExpenseWithInvestments(eventID) })
	}
	return gm.apply(playerID, "pay_cash", func(s *Session) error { return s.PayExpenseWithCash(eventID) })
}

// TriggerEvent injects a scripted life event into the player's game
func (gm *GameManager) TriggerEvent(playerID string, event types.GameEvent) (types.StateView, error) {
	view, err := gm.apply(playerID, "trigger_event", func(s *Session) error { return s.TriggerEvent(event) })
	if err == nil {
		gm.metrics.ObserveEvent(string(event.Kind))
	}
	return view, err
}

// ResetGame abandons the player's game, keeping the session for a restart
func (gm *GameManager) ResetGame(playerID string) error {
	session, err := gm.session(playerID)
	if err != nil {
		return err
	}
	session.Reset()
	gm.persist(session)
	return nil
}

// Snapshot returns the player's flat snapshot
func (gm *GameManager) Snapshot(playerID string) (map[string]string, error) {
	session, err := gm.session(playerID)
	if err != nil {
		return nil, err
	}
	return session.Snapshot(), nil
}

// History lists the player's finished games, newest first
func (gm *GameManager) History(ctx context.Context, playerID string, limit int) ([]types.Result, error) {
	if gm.history == nil {
		return []types.Result{}, nil
	}
	return gm.history.List(ctx, playerID, limit)
}

// AdvanceAll ticks every session once and handles what the ticks produced
func (gm *GameManager) AdvanceAll(now int64) {
	start := time.Now()

	gm.stateLock.RLock()
	sessions := make([]*Session, 0, len(gm.sessions))
	for _, session := range gm.sessions {
		sessions = append(sessions, session)
	}
	gm.stateLock.RUnlock()

	for _, session := range sessions {
		report := session.Advance(now)
		if !report.Processed {
			continue
		}
		gm.metrics.ObserveTick(report.MonthsProcessed)

		for _, event := range report.NewEvents {
			gm.metrics.ObserveEvent(string(event.Kind))
			gm.Logger.Info("Event triggered for player",
				zap.String("player_id", session.PlayerID()),
				zap.String("event_id", event.ID),
				zap.String("title", event.Title))
			gm.notify(session.PlayerID(), formatEventNotice(event))
		}

		if report.GameOver && report.Result != nil {
			gm.finish(session, *report.Result)
			continue
		}
		if len(report.NewEvents) > 0 {
			gm.persist(session)
		}
	}

	gm.metrics.ObserveTickDuration(time.Since(start).Seconds())
}

func (gm *GameManager) finish(session *Session, result types.Result) {
	gm.metrics.ObserveGameOver(result.Won)
	gm.persist(session)

	if gm.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()
		if err := gm.history.Record(ctx, result); err != nil {
			gm.Logger.Error("Failed to record result",
				zap.String("player_id", result.UserID),
				zap.Error(err))
		}
	}

	gm.notify(session.PlayerID(), formatResultNotice(result))
}

// SaveAll writes a snapshot of every started session
func (gm *GameManager) SaveAll(ctx context.Context) error {
	if gm.storage == nil {
		return nil
	}

	gm.stateLock.RLock()
	sessions := make([]*Session, 0, len(gm.sessions))
	for _, session := range gm.sessions {
		sessions = append(sessions, session)
	}
	gm.stateLock.RUnlock()

	var firstErr error
	for _, session := range sessions {
		if session.Status() == types.StatusNotStarted {
			continue
		}
		if err := gm.storage.Save(ctx, session.PlayerID(), session.Snapshot()); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to save session %s: %w", session.PlayerID(), err)
		}
	}
	return firstErr
}

func (gm *GameManager) persist(session *Session) {
	if gm.storage == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	if err := gm.storage.Save(ctx, session.PlayerID(), session.Snapshot()); err != nil {
		gm.Logger.Error("Failed to save session snapshot",
			zap.String("player_id", session.PlayerID()),
			zap.Error(err))
	}
}

// notify pushes a message to chat players. Chat players are keyed by their
// phone number; players of the HTTP API are not notified.
func (gm *GameManager) notify(playerID, message string) {
	if gm.messageSender == nil || !gm.config.WhatsApp.NotifyEvents || !isPhoneNumber(playerID) {
		return
	}

	if _, err := gm.messageSender.SendMessage("", playerID, message); err != nil {
		gm.Logger.Warn("Failed to notify player",
			zap.String("player_id", playerID),
			zap.Error(err))
	}
}

func isPhoneNumber(id string) bool {
	if len(id) < 8 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func formatEventNotice(event types.GameEvent) string {
	switch event.Kind {
	case types.EventExpense:
		return fmt.Sprintf("🚨 *%s*\n%s\n\nCost: ₹%s\nThe clock is paused until you pay.\nReply */pay cash* or */pay investments*",
			event.Title, event.Description, event.Cost.StringFixed(0))
	case types.EventIncome:
		return fmt.Sprintf("💰 *%s*\n%s\n\n₹%s was added to your cash.",
			event.Title, event.Description, event.Cost.StringFixed(0))
	default:
		return fmt.Sprintf("💡 *%s*\n%s", event.Title, event.Description)
	}
}

func formatResultNotice(result types.Result) string {
	verdict := "The AI investor finished ahead this time."
	if result.Won {
		verdict = "You beat the AI investor! 🏆"
	}
	message := fmt.Sprintf("🏁 *GAME OVER*\n\nNet worth: ₹%s\nAI net worth: ₹%s\nMonthly passive income: ₹%s\n\n%s",
		result.FinalNetWorth.StringFixed(0), result.AINetWorth.StringFixed(0), result.PassiveIncome.StringFixed(0), verdict)
	if result.ReachedTarget {
		message += "\nYou reached your passive income target. 🎯"
	}
	return message
}

// StartTickLoop starts driving the sessions
func (gm *GameManager) StartTickLoop() {
	gm.tickLoop.Start()
}

// StopTickLoop stops the loop and flushes every session to storage
func (gm *GameManager) StopTickLoop() {
	gm.tickLoop.Stop()
}
