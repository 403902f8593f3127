package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/wealth-builder/config"
	"github.com/user/wealth-builder/internal/types"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleResult(user string, finished time.Time, netWorth int64) types.Result {
	return types.Result{
		ID:            NewID(),
		UserID:        user,
		Difficulty:    types.DifficultyMedium,
		FinalNetWorth: decimal.NewFromInt(netWorth),
		AINetWorth:    decimal.RequireFromString("1234567.89"),
		PassiveIncome: decimal.RequireFromString("4500.50"),
		Won:           netWorth > 1234567,
		ReachedTarget: false,
		FinishedAt:    finished.UTC(),
	}
}

func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	first := sampleResult("alice", base, 1000000)
	second := sampleResult("alice", base.Add(time.Hour), 2000000)
	other := sampleResult("bob", base, 5)

	require.NoError(t, store.Record(ctx, first))
	require.NoError(t, store.Record(ctx, second))
	require.NoError(t, store.Record(ctx, other))

	results, err := store.List(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// newest first
	assert.Equal(t, second.ID, results[0].ID)
	assert.True(t, second.FinalNetWorth.Equal(results[0].FinalNetWorth))
	assert.True(t, results[0].AINetWorth.Equal(decimal.RequireFromString("1234567.89")))
	assert.True(t, results[0].PassiveIncome.Equal(decimal.RequireFromString("4500.5")))
	assert.True(t, results[0].Won)
	assert.Equal(t, types.DifficultyMedium, results[0].Difficulty)
	assert.True(t, second.FinishedAt.Equal(results[0].FinishedAt))

	limited, err := store.List(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := store.List(ctx, "carol", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
	// an unknown user lists as [] rather than null
	require.NotNil(t, none)
	encoded, err := json.Marshal(none)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(encoded))
}

func TestSQLiteStore(t *testing.T) {
	exerciseStore(t, newTestSQLite(t))
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("WEALTH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("WEALTH_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	store, err := NewPostgres(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.pool.Exec(ctx, `DELETE FROM game_results WHERE user_id IN ('alice','bob','carol')`)
	require.NoError(t, err)

	exerciseStore(t, store)
}

func TestOpenSelectsDriver(t *testing.T) {
	store, err := Open(context.Background(), config.DatabaseConfig{
		Driver: "sqlite3",
		DSN:    filepath.Join(t.TempDir(), "open.db"),
	})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	assert.NoError(t, store.Close())

	_, err = Open(context.Background(), config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestNewIDIsSortable(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.Len(t, a, 26)
	assert.Less(t, a, b)
}
