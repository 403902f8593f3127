package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/user/wealth-builder/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS results (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	difficulty TEXT NOT NULL,
	final_net_worth TEXT NOT NULL,
	ai_net_worth TEXT NOT NULL,
	passive_income TEXT NOT NULL,
	won INTEGER NOT NULL,
	reached_target INTEGER NOT NULL,
	finished_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_user ON results(user_id, finished_at);
`

// SQLiteStore keeps results in a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (and if needed creates) the database at path
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SQLiteStore) Record(ctx context.Context, r types.Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO results
		(id, user_id, difficulty, final_net_worth, ai_net_worth, passive_income, won, reached_target, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, string(r.Difficulty), r.FinalNetWorth.String(), r.AINetWorth.String(),
		r.PassiveIncome.String(), boolToInt(r.Won), boolToInt(r.ReachedTarget), r.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, userID string, limit int) ([]types.Result, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, difficulty, final_net_worth, ai_net_worth, passive_income, won, reached_target, finished_at
		FROM results WHERE user_id = ?
		ORDER BY finished_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	out := []types.Result{}
	for rows.Next() {
		var (
			r                        types.Result
			difficulty               string
			netWorth, aiNet, passive string
			won, reached             int
			finished                 int64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &difficulty, &netWorth, &aiNet, &passive, &won, &reached, &finished); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Difficulty = types.Difficulty(difficulty)
		if r.FinalNetWorth, err = decimal.NewFromString(netWorth); err != nil {
			return nil, err
		}
		if r.AINetWorth, err = decimal.NewFromString(aiNet); err != nil {
			return nil, err
		}
		if r.PassiveIncome, err = decimal.NewFromString(passive); err != nil {
			return nil, err
		}
		r.Won = won != 0
		r.ReachedTarget = reached != 0
		r.FinishedAt = time.UnixMilli(finished).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
