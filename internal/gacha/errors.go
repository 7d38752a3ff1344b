package gacha

import "errors"

var (
	// Catalog bootstrap.
	ErrLengthMismatch = errors.New("catalog: parallel input lists differ in length")
	ErrZeroValue      = errors.New("catalog: zero template id or element code")
	ErrOutOfBound     = errors.New("catalog: element code out of range")
	ErrEmptyCatalog   = errors.New("catalog: no templates")

	// Roll state machine.
	ErrRollInProgress    = errors.New("gacha: roll already in progress")
	ErrInsufficientFunds = errors.New("gacha: insufficient token balance")
	ErrTransferFailed    = errors.New("gacha: ledger transfer failed")
	ErrRandomnessFailed  = errors.New("gacha: randomness request failed")

	// Fulfillment protocol.
	ErrUnknownRequest = errors.New("gacha: unknown or stale request id")
	ErrMintFailed     = errors.New("gacha: registry mint failed")
)
