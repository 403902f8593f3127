package game

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/user/wealth-builder/config"
	"github.com/user/wealth-builder/internal/history"
	"github.com/user/wealth-builder/internal/metrics"
	"github.com/user/wealth-builder/internal/types"
)

// Mock MessageSender for testing
type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) SendMessage(phoneNumber, recipient, message string) (string, error) {
	args := m.Called(phoneNumber, recipient, message)
	return args.String(0), args.Error(1)
}

const testPhone = "5521999999999"

type testManager struct {
	*GameManager
	now   int64
	store *FileSnapshotStore
}

func newTestManager(t *testing.T, cfg config.Config) *testManager {
	t.Helper()
	store, err := NewFileSnapshotStore(t.TempDir())
	require.NoError(t, err)

	tm := &testManager{GameManager: NewGameManager(cfg), now: startWall, store: store}
	tm.SetClock(func() int64 { return tm.now })
	tm.SetRandomFactory(func() RandomSource { return &scriptedRandom{} })
	tm.SetStorage(store)
	return tm
}

func TestStartGame(t *testing.T) {
	// Setup
	gm := newTestManager(t, config.DefaultConfig())

	// Test case 1: first start uses the configured default difficulty
	state, err := gm.StartGame(testPhone, "")
	require.NoError(t, err)
	assert.Equal(t, types.StatusRunning, state.Status)
	assert.Equal(t, types.DifficultyEasy, state.Difficulty)
	assertDecimal(t, 200000, state.Cash)

	// Test case 2: restarting with another difficulty starts over on it
	state, err = gm.StartGame(testPhone, types.DifficultyHard)
	require.NoError(t, err)
	assertDecimal(t, 100000, state.Cash)

	// Test case 3: unknown difficulty
	_, err = gm.StartGame(testPhone, "legendary")
	assert.ErrorIs(t, err, ErrUnknownDifficulty)

	assert.Equal(t, []string{testPhone}, gm.PlayerIDs())
}

func TestCommandsNeedSession(t *testing.T) {
	gm := newTestManager(t, config.DefaultConfig())

	_, err := gm.GetState("nobody")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = gm.Invest("nobody", types.Savings, d(1))
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, gm.ResetGame("nobody"), ErrSessionNotFound)
	_, err = gm.StartGame("", "")
	assert.Error(t, err)
}

func TestCommandsPersistAndReload(t *testing.T) {
	// Setup
	cfg := config.DefaultConfig()
	gm := newTestManager(t, cfg)
	_, err := gm.StartGame(testPhone, types.DifficultyMedium)
	require.NoError(t, err)

	state, err := gm.Invest(testPhone, types.IndexFund, d(50000))
	require.NoError(t, err)
	assertDecimal(t, 100000, state.Cash)

	state, err = gm.Buy(testPhone, types.ClassStock, types.TCS, d(2))
	require.NoError(t, err)
	assertDecimal(t, 93000, state.Cash)

	_, err = gm.Sell(testPhone, types.ClassStock, types.TCS, d(3))
	assert.ErrorIs(t, err, ErrInsufficientUnits)

	state, err = gm.Withdraw(testPhone, types.IndexFund, d(10000))
	require.NoError(t, err)
	assertDecimal(t, 103000, state.Cash)

	// Test case 1: the snapshot on disk reflects the last command
	snap, err := gm.store.Load(context.Background(), testPhone)
	require.NoError(t, err)
	assert.Equal(t, "103000", snap["cash"])

	// Test case 2: a new manager picks the session up
	reloaded := NewGameManager(cfg)
	reloaded.SetStorage(gm.store)
	loaded, err := reloaded.LoadSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)

	restored, err := reloaded.GetState(testPhone)
	require.NoError(t, err)
	assertDecimal(t, 103000, restored.Cash)
	assertDecimal(t, 2, restored.Holding(types.TCS).Quantity)
	assert.Equal(t, types.DifficultyMedium, restored.Difficulty)
}

func TestRejectionsAreCounted(t *testing.T) {
	gm := newTestManager(t, config.DefaultConfig())
	m := metrics.New("wealth")
	gm.SetMetrics(m)

	_, err := gm.StartGame(testPhone, "")
	require.NoError(t, err)

	_, err = gm.Invest(testPhone, types.Savings, d(999999999))
	assert.ErrorIs(t, err, ErrInsufficientCash)
	_, err = gm.PayExpense(testPhone, "", false)
	assert.ErrorIs(t, err, ErrNoPendingEvent)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectedCommands.WithLabelValues("invest")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectedCommands.WithLabelValues("pay_cash")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
}

func TestPauseAndResume(t *testing.T) {
	gm := newTestManager(t, config.DefaultConfig())
	_, err := gm.StartGame(testPhone, "")
	require.NoError(t, err)

	state, err := gm.SetPaused(testPhone, true)
	require.NoError(t, err)
	assert.True(t, state.ManualPause)
	assert.Equal(t, types.StatusPaused, state.Status)

	gm.now += 10000
	gm.AdvanceAll(gm.now)
	state, err = gm.SetPaused(testPhone, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), state.ElapsedMs)
	assert.Equal(t, types.StatusRunning, state.Status)
}

func TestAdvanceAllNotifiesExpense(t *testing.T) {
	// Setup
	gm := newTestManager(t, config.DefaultConfig())
	gm.SetRandomFactory(func() RandomSource {
		return &scriptedRandom{floats: []float64{0.001}}
	})
	sender := new(MockMessageSender)
	gm.SetMessageSender(sender)

	sender.On("SendMessage", "", testPhone, mock.MatchedBy(func(msg string) bool {
		return strings.Contains(msg, "Family Wedding") && strings.Contains(msg, "/pay cash")
	})).Return("msg-1", nil).Once()

	_, err := gm.StartGame(testPhone, "")
	require.NoError(t, err)

	// one grace period in, the scripted roll fires an expense
	gm.now += 60000
	gm.AdvanceAll(gm.now)

	state, err := gm.GetState(testPhone)
	require.NoError(t, err)
	require.NotNil(t, state.CurrentEvent)
	assert.True(t, state.ModalOpen)
	assert.Equal(t, types.EventExpense, state.CurrentEvent.Kind)
	sender.AssertExpectations(t)

	// the pending expense was saved with the session
	snap, err := gm.store.Load(context.Background(), testPhone)
	require.NoError(t, err)
	assert.Equal(t, state.CurrentEvent.ID, snap["current_event"])

	before := state.Cash
	state, err = gm.PayExpense(testPhone, state.CurrentEvent.ID, false)
	require.NoError(t, err)
	assert.True(t, before.Sub(state.Cash).Equal(d(200000)))
	assert.False(t, state.ModalOpen)
}

func TestAdvanceAllFinishesGames(t *testing.T) {
	// Setup
	cfg := config.DefaultConfig()
	cfg.Game.DurationMs = 12000
	gm := newTestManager(t, cfg)

	results, err := history.NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer results.Close()
	gm.SetHistory(results)

	m := metrics.New("wealth")
	gm.SetMetrics(m)

	sender := new(MockMessageSender)
	gm.SetMessageSender(sender)
	sender.On("SendMessage", "", testPhone, mock.MatchedBy(func(msg string) bool {
		return strings.Contains(msg, "GAME OVER")
	})).Return("msg-1", nil).Once()

	_, err = gm.StartGame(testPhone, "")
	require.NoError(t, err)
	// players of the HTTP API are never messaged
	_, err = gm.StartGame("alice", "")
	require.NoError(t, err)

	gm.now += 12000
	gm.AdvanceAll(gm.now)
	gm.now += 1000
	gm.AdvanceAll(gm.now)

	sender.AssertExpectations(t)

	// Test case 1: one result per player, recorded once
	list, err := gm.History(context.Background(), testPhone, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, testPhone, list[0].UserID)

	state, err := gm.GetState(testPhone)
	require.NoError(t, err)
	require.NotNil(t, state.Result)
	assert.Equal(t, state.Result.ID, list[0].ID)

	// Test case 2: metrics saw both games finish
	finished := testutil.ToFloat64(m.GamesFinished.WithLabelValues("won")) +
		testutil.ToFloat64(m.GamesFinished.WithLabelValues("lost"))
	assert.Equal(t, 2.0, finished)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TicksTotal))

	// Test case 3: the game over state was saved
	snap, err := gm.store.Load(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "true", snap["game_over"])
}

func TestResetAndSnapshot(t *testing.T) {
	gm := newTestManager(t, config.DefaultConfig())
	_, err := gm.StartGame(testPhone, "")
	require.NoError(t, err)
	_, err = gm.Invest(testPhone, types.Gold, d(5000))
	require.NoError(t, err)

	snap, err := gm.Snapshot(testPhone)
	require.NoError(t, err)
	assert.Equal(t, "5000", snap["holding.gold.principal"])

	require.NoError(t, gm.ResetGame(testPhone))
	state, err := gm.GetState(testPhone)
	require.NoError(t, err)
	assert.Equal(t, types.StatusNotStarted, state.Status)

	_, err = gm.Invest(testPhone, types.Gold, d(1))
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestTriggerEvent(t *testing.T) {
	gm := newTestManager(t, config.DefaultConfig())
	_, err := gm.StartGame(testPhone, "")
	require.NoError(t, err)

	state, err := gm.TriggerEvent(testPhone, types.GameEvent{Title: "Gift", Cost: d(1000), Kind: types.EventIncome})
	require.NoError(t, err)
	assertDecimal(t, 201000, state.Cash)
}

func TestHistoryWithoutStore(t *testing.T) {
	gm := NewGameManager(config.DefaultConfig())

	list, err := gm.History(context.Background(), testPhone, 5)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTickLoop(t *testing.T) {
	// Setup
	cfg := config.DefaultConfig()
	cfg.Game.TickIntervalMs = 10
	cfg.Game.MinTickIntervalMs = 0
	cfg.Storage.SaveInterval = 0
	gm := NewGameManager(cfg)
	store, err := NewFileSnapshotStore(t.TempDir())
	require.NoError(t, err)
	gm.SetStorage(store)

	_, err = gm.StartGame(testPhone, "")
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), testPhone))

	gm.StartTickLoop()
	assert.Eventually(t, func() bool {
		state, err := gm.GetState(testPhone)
		return err == nil && state.ElapsedMs > 0
	}, 2*time.Second, 10*time.Millisecond)

	gm.StopTickLoop()
	gm.StopTickLoop()

	// stopping flushes every started session
	_, err = store.Load(context.Background(), testPhone)
	assert.NoError(t, err)
}

func TestStopTickLoopWithoutStart(t *testing.T) {
	gm := NewGameManager(config.DefaultConfig())
	assert.NotPanics(t, gm.StopTickLoop)
}
