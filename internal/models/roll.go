package models

import "time"

// RollState is the per-user summon state machine. A user has at most one
// outstanding roll: idle -> rolling on initiate, rolling -> idle on
// fulfillment, nothing else.
type RollState string

const (
	RollStateIdle    RollState = "idle"
	RollStateRolling RollState = "rolling"
)

// RollTicket binds an outstanding randomness request to its user. The pair
// is a bijection while the roll is outstanding and is deleted the moment the
// fulfillment is consumed.
type RollTicket struct {
	RequestID string    `json:"request_id"`
	UserID    int64     `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
}

type DepositRequest struct {
	Amount string `json:"amount" binding:"required"`
}

type PurchaseRequest struct {
	Payment string `json:"payment" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

type FulfillRequest struct {
	RequestID   string `json:"request_id" binding:"required"`
	RandomValue string `json:"random_value" binding:"required"` // hex
}

type LoginRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Username string `json:"username"`
}
