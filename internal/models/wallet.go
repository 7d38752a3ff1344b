package models

import "time"

// CustodyUserID is the engine's own account. Pulled payments and summon
// tokens awaiting burn live here; it is never a valid deposit or purchase
// target.
const CustodyUserID int64 = 0

// Wallet holds one user's payment-asset balance and summon-token balance,
// both in 18-decimal base units.
type Wallet struct {
	UserID       int64   `json:"user_id"`
	AssetBalance *Amount `json:"asset_balance"`
	TokenBalance *Amount `json:"token_balance"`

	TotalDeposited *Amount `json:"total_deposited"`
	TotalPurchased *Amount `json:"total_purchased"`
	TotalBurned    *Amount `json:"total_burned"`
	Summons        int64   `json:"summons"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewWallet(userID int64) *Wallet {
	now := time.Now()
	return &Wallet{
		UserID:         userID,
		AssetBalance:   NewAmount(0),
		TokenBalance:   NewAmount(0),
		TotalDeposited: NewAmount(0),
		TotalPurchased: NewAmount(0),
		TotalBurned:    NewAmount(0),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
