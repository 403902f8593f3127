package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/user/wealth-builder/internal/types"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS game_results (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	difficulty TEXT NOT NULL,
	final_net_worth NUMERIC(20,2) NOT NULL,
	ai_net_worth NUMERIC(20,2) NOT NULL,
	passive_income NUMERIC(20,2) NOT NULL,
	won BOOLEAN NOT NULL,
	reached_target BOOLEAN NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_game_results_user ON game_results(user_id, finished_at DESC);
`

// PostgresStore keeps results in Postgres for shared deployments
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect opens a pgx pool and checks it is reachable
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// NewPostgres connects and ensures the schema exists
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Record(ctx context.Context, r types.Result) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO game_results
		(id, user_id, difficulty, final_net_worth, ai_net_worth, passive_income, won, reached_target, finished_at)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		r.ID, r.UserID, string(r.Difficulty), r.FinalNetWorth.String(), r.AINetWorth.String(),
		r.PassiveIncome.String(), r.Won, r.ReachedTarget, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, userID string, limit int) ([]types.Result, error) {
	query := `
		SELECT id, user_id, difficulty, final_net_worth::text, ai_net_worth::text, passive_income::text,
		       won, reached_target, finished_at
		FROM game_results WHERE user_id = $1
		ORDER BY finished_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
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
		)
		if err := rows.Scan(&r.ID, &r.UserID, &difficulty, &netWorth, &aiNet, &passive, &r.Won, &r.ReachedTarget, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Difficulty = types.Difficulty(difficulty)
		r.FinalNetWorth = decimal.RequireFromString(netWorth)
		r.AINetWorth = decimal.RequireFromString(aiNet)
		r.PassiveIncome = decimal.RequireFromString(passive)
		r.FinishedAt = r.FinishedAt.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
