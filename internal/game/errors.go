package game

import "errors"

// Command rejections. None of them leaves a partial mutation behind.
var (
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInsufficientCash     = errors.New("insufficient cash")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrInsufficientUnits    = errors.New("quantity exceeds units owned")
	ErrUnknownAsset         = errors.New("unknown asset")
	ErrTradableAsset        = errors.New("asset is traded in units, use buy or sell")
	ErrNotTradable          = errors.New("asset cannot be traded in units, use invest or withdraw")
	ErrWrongAssetClass      = errors.New("asset does not belong to that class")
	ErrUnknownDifficulty    = errors.New("unknown difficulty")

	ErrNotStarted     = errors.New("game not started")
	ErrGameOver       = errors.New("game is over")
	ErrNoPendingEvent = errors.New("no pending event")
	ErrEventMismatch  = errors.New("event is not the pending event")
	ErrEventPending   = errors.New("an expense is already waiting to be paid")
	ErrInvalidEvent   = errors.New("invalid event")

	ErrSessionNotFound  = errors.New("session not found")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrCorruptSnapshot  = errors.New("corrupt snapshot")
)

// IsRejection reports whether err is a validation failure caused by the
// caller rather than an infrastructure error
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrInvalidQuantity, ErrInsufficientCash, ErrInsufficientHoldings,
		ErrInsufficientUnits, ErrUnknownAsset, ErrTradableAsset, ErrNotTradable,
		ErrWrongAssetClass, ErrUnknownDifficulty, ErrNotStarted, ErrGameOver,
		ErrNoPendingEvent, ErrEventMismatch, ErrEventPending, ErrInvalidEvent,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
