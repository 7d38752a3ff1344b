package models

import "time"

type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypePurchase TransactionType = "purchase"
	TransactionTypeRefund   TransactionType = "refund"
	TransactionTypeBurn     TransactionType = "burn"
	TransactionTypeMint     TransactionType = "mint"
)

type Transaction struct {
	ID          string          `json:"id"`
	UserID      int64           `json:"user_id"`
	Type        TransactionType `json:"type"`
	Amount      *Amount         `json:"amount"`
	RequestID   string          `json:"request_id,omitempty"`
	BeastID     string          `json:"beast_id,omitempty"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
