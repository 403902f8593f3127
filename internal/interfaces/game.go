package interfaces

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/user/wealth-builder/internal/types"
)

// MessageSender defines the interface for sending messages
type MessageSender interface {
	SendMessage(phoneNumber, recipient, message string) (string, error)
}

// GameManager defines the interface for game operations. Commands return the
// state view as it stands after the command.
type GameManager interface {
	StartGame(playerID string, difficulty types.Difficulty) (types.StateView, error)
	GetState(playerID string) (types.StateView, error)
	Invest(playerID string, asset types.AssetID, amount decimal.Decimal) (types.StateView, error)
	Withdraw(playerID string, asset types.AssetID, amount decimal.Decimal) (types.StateView, error)
	Buy(playerID string, class types.AssetClass, symbol types.AssetID, quantity decimal.Decimal) (types.StateView, error)
	Sell(playerID string, class types.AssetClass, symbol types.AssetID, quantity decimal.Decimal) (types.StateView, error)
	SetPaused(playerID string, paused bool) (types.StateView, error)
	PayExpense(playerID, eventID string, withInvestments bool) (types.StateView, error)
	ResetGame(playerID string) error
	Snapshot(playerID string) (map[string]string, error)
	History(ctx context.Context, playerID string, limit int) ([]types.Result, error)
}
