// Package history records the final outcome of finished games, keyed by an
// opaque user identity.
package history

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/user/wealth-builder/config"
	"github.com/user/wealth-builder/internal/types"
)

// Store persists game results
type Store interface {
	Record(ctx context.Context, result types.Result) error
	// List returns a user's results, newest first. limit <= 0 means all.
	List(ctx context.Context, userID string, limit int) ([]types.Result, error)
	Close() error
}

// NewID returns a time-sortable identifier for a result. IDs made within
// the same millisecond still sort in creation order.
func NewID() string {
	return ulid.Make().String()
}

// Open connects the store selected by the database config
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite3":
		return NewSQLite(cfg.DSN)
	case "postgres":
		return NewPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported history driver %q", cfg.Driver)
	}
}
