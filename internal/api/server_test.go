package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/user/wealth-builder/config"
	"github.com/user/wealth-builder/internal/game"
	"github.com/user/wealth-builder/internal/metrics"
	"github.com/user/wealth-builder/internal/types"
)

// Mock GameManager for testing
type MockGameManager struct {
	mock.Mock
}

func (m *MockGameManager) StartGame(playerID string, difficulty types.Difficulty) (types.StateView, error) {
	args := m.Called(playerID, difficulty)
	return args.Get(0).(types.StateView), args.Error(1)
}

func (m *MockGameManager) GetState(playerID string) (types.StateView, error) {
	args := m.Called(playerID)
	return args.Get(0).(types.StateView), args.Error(1)
}

func (m *MockGameManager) Invest(playerID string, asset types.AssetID, amount decimal.Decimal) (types.StateView, error) {
	args := m.Called(playerID, asset, amount.String())
	return args.Get(0).(types.StateView), args.Error(1)
}

func (m *MockGameManager) Withdraw(playerID string, asset types.AssetID, amount decimal.Decimal) (types.StateView, error) {
	args := m.Called(playerID, asset, amount.String())
	return args.Get(0).(types.StateView), args.Error(1)
}

func (m *MockGameManager) Buy(playerID string, class types.AssetClass, symbol types.AssetID, quantity decimal.Decimal) (types.StateView, error) {
	args := m.Called(playerID, class, symbol, quantity.String())
	return args.Get(0).(types.StateView), args.Error(1)
}

func (m *MockGameManager) Sell(playerID string, class types.AssetClass, symbol types.AssetID, quantity decimal.Decimal) (types.StateView, error) {
	args := m.Called(playerID, class, symbol, quantity.String())
	return args.Get(0).(types.StateView), args.Error(1)
}

func (m *MockGameManager) SetPaused(playerID string, paused bool) (types.StateView, error) {
	args := m.Called(playerID, paused)
	return args.Get(0).(types.StateView), args.Error(1)
}

func (m *MockGameManager) PayExpense(playerID, eventID string, withInvestments bool) (types.StateView, error) {
	args := m.Called(playerID, eventID, withInvestments)
	return args.Get(0).(types.StateView), args.Error(1)
}

func (m *MockGameManager) ResetGame(playerID string) error {
	args := m.Called(playerID)
	return args.Error(0)
}

func (m *MockGameManager) Snapshot(playerID string) (map[string]string, error) {
	args := m.Called(playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockGameManager) History(ctx context.Context, playerID string, limit int) ([]types.Result, error) {
	args := m.Called(ctx, playerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Result), args.Error(1)
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	s := New(new(MockGameManager), nil, nil)

	rec := doRequest(t, s.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["ok"])

	// no metrics configured
	rec = doRequest(t, s.Handler(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartGame(t *testing.T) {
	// Setup
	gm := new(MockGameManager)
	s := New(gm, nil, nil)
	gm.On("StartGame", "alice", types.DifficultyHard).
		Return(types.StateView{Status: types.StatusRunning, Difficulty: types.DifficultyHard, Cash: decimal.NewFromInt(100000)}, nil).Once()
	gm.On("StartGame", "bob", types.Difficulty("")).
		Return(types.StateView{Status: types.StatusRunning, Difficulty: types.DifficultyEasy}, nil).Once()

	// Test case 1: explicit difficulty, case-insensitive
	rec := doRequest(t, s.Handler(), http.MethodPost, "/v1/players/alice/game", `{"difficulty":"Hard"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, "hard", body["difficulty"])
	assert.Equal(t, "100000", body["cash"])

	// Test case 2: no body keeps the current selection
	rec = doRequest(t, s.Handler(), http.MethodPost, "/v1/players/bob/game", "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Test case 3: unknown difficulty never reaches the manager
	rec = doRequest(t, s.Handler(), http.MethodPost, "/v1/players/alice/game", `{"difficulty":"legendary"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Test case 4: malformed body
	rec = doRequest(t, s.Handler(), http.MethodPost, "/v1/players/alice/game", `{"difficulty":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	gm.AssertExpectations(t)
}

func TestCommands(t *testing.T) {
	// Setup
	gm := new(MockGameManager)
	s := New(gm, nil, nil)
	view := types.StateView{Status: types.StatusRunning}

	gm.On("Invest", "alice", types.IndexFund, "50000").Return(view, nil).Once()
	gm.On("Withdraw", "alice", types.Gold, "12.5").Return(view, nil).Once()
	gm.On("Buy", "alice", types.ClassStock, types.TCS, "2").Return(view, nil).Once()
	gm.On("Sell", "alice", types.ClassCrypto, types.Bitcoin, "0.25").Return(view, nil).Once()
	gm.On("SetPaused", "alice", true).Return(view, nil).Once()
	gm.On("SetPaused", "alice", false).Return(view, nil).Once()
	gm.On("PayExpense", "alice", "evt-1", true).Return(view, nil).Once()
	gm.On("PayExpense", "alice", "", false).Return(view, nil).Once()

	requests := []struct {
		path string
		body string
	}{
		{"/v1/players/alice/invest", `{"asset":"indexFund","amount":50000}`},
		{"/v1/players/alice/withdraw", `{"asset":"gold","amount":"12.50"}`},
		{"/v1/players/alice/buy", `{"class":"stock","symbol":"tcs","quantity":2}`},
		{"/v1/players/alice/sell", `{"class":"crypto","symbol":"BTC","quantity":"0.25"}`},
		{"/v1/players/alice/pause", ""},
		{"/v1/players/alice/resume", ""},
		{"/v1/players/alice/expense/investments", `{"event_id":"evt-1"}`},
		{"/v1/players/alice/expense/cash", ""},
	}
	for _, tc := range requests {
		rec := doRequest(t, s.Handler(), http.MethodPost, tc.path, tc.body)
		assert.Equal(t, http.StatusOK, rec.Code, tc.path)
	}

	// unknown fields are refused
	rec := doRequest(t, s.Handler(), http.MethodPost, "/v1/players/alice/invest", `{"asset":"gold","amount":1,"leverage":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	gm.AssertExpectations(t)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{game.ErrSessionNotFound, http.StatusNotFound},
		{game.ErrInvalidAmount, http.StatusBadRequest},
		{game.ErrUnknownAsset, http.StatusBadRequest},
		{game.ErrWrongAssetClass, http.StatusBadRequest},
		{game.ErrInsufficientCash, http.StatusConflict},
		{game.ErrGameOver, http.StatusConflict},
		{game.ErrNoPendingEvent, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", game.ErrEventMismatch), http.StatusConflict},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		gm := new(MockGameManager)
		s := New(gm, nil, nil)
		gm.On("GetState", "alice").Return(types.StateView{}, tc.err).Once()

		rec := doRequest(t, s.Handler(), http.MethodGet, "/v1/players/alice/game", "")
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		if tc.status == http.StatusInternalServerError {
			assert.Equal(t, "internal error", decodeBody(t, rec)["error"])
		} else {
			assert.Equal(t, tc.err.Error(), decodeBody(t, rec)["error"])
		}
	}
}

func TestResetSnapshotAndHistory(t *testing.T) {
	// Setup
	gm := new(MockGameManager)
	s := New(gm, nil, nil)
	gm.On("ResetGame", "alice").Return(nil).Once()
	gm.On("Snapshot", "alice").Return(map[string]string{"cash": "1000"}, nil).Once()
	gm.On("History", mock.Anything, "alice", defaultHistoryLimit).Return([]types.Result{{ID: "r1", UserID: "alice"}}, nil).Once()
	gm.On("History", mock.Anything, "alice", maxHistoryLimit).Return([]types.Result{}, nil).Once()

	rec := doRequest(t, s.Handler(), http.MethodDelete, "/v1/players/alice/game", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, s.Handler(), http.MethodGet, "/v1/players/alice/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000", decodeBody(t, rec)["cash"])

	rec = doRequest(t, s.Handler(), http.MethodGet, "/v1/players/alice/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	results := decodeBody(t, rec)["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "r1", results[0].(map[string]any)["id"])

	// oversized limits are capped
	rec = doRequest(t, s.Handler(), http.MethodGet, "/v1/players/alice/history?limit=5000", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s.Handler(), http.MethodGet, "/v1/players/alice/history?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	gm.AssertExpectations(t)
}

func TestAssets(t *testing.T) {
	s := New(new(MockGameManager), nil, nil)

	rec := doRequest(t, s.Handler(), http.MethodGet, "/v1/assets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var assets []types.AssetSpec
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assets))
	assert.Len(t, assets, len(types.Catalog()))
	assert.Equal(t, types.Savings, assets[0].ID)
}

func TestWithGameManager(t *testing.T) {
	// Setup
	gm := game.NewGameManager(config.DefaultConfig())
	m := metrics.New("wealth")
	gm.SetMetrics(m)
	s := New(gm, m, nil)

	// Test case 1: commands before a game exists
	rec := doRequest(t, s.Handler(), http.MethodGet, "/v1/players/carol/game", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Test case 2: a full round trip
	rec = doRequest(t, s.Handler(), http.MethodPost, "/v1/players/carol/game", `{"difficulty":"medium"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, s.Handler(), http.MethodPost, "/v1/players/carol/invest", `{"asset":"savings","amount":"10000"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var state types.StateView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.True(t, state.Cash.Equal(decimal.NewFromInt(140000)))
	assert.True(t, state.Holding(types.Savings).Principal.Equal(decimal.NewFromInt(10000)))

	// Test case 3: state conflicts and bad arguments
	rec = doRequest(t, s.Handler(), http.MethodPost, "/v1/players/carol/withdraw", `{"asset":"savings","amount":"999999"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = doRequest(t, s.Handler(), http.MethodPost, "/v1/players/carol/buy", `{"class":"crypto","symbol":"TCS","quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doRequest(t, s.Handler(), http.MethodPost, "/v1/players/carol/expense/cash", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Test case 4: metrics are served from the same registry
	rec = doRequest(t, s.Handler(), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `wealth_rejected_commands_total{command="withdraw"} 1`)
}
