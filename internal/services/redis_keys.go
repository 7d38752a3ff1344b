package services

import "time"

const (
	KeyWallet           = "wallet:%d"
	KeyUserSession      = "user:%d:session:%s"
	KeyRollTicket       = "roll:ticket:%s"
	KeyUserRolls        = "user:%d:rolls"
	KeyBeast            = "beast:%s"
	KeyUserBeasts       = "user:%d:beasts"
	KeyBeastCount       = "beasts:count"
	KeyTransaction      = "transaction:%s"
	KeyUserTransactions = "user:%d:transactions"
	KeyRateLimit        = "ratelimit:%d:%s"

	TTLUserSession = 24 * time.Hour
	TTLRollTicket  = 7 * 24 * time.Hour
	TTLTransaction = 30 * 24 * time.Hour

	// Kept per user in the transaction and roll sorted sets.
	HistoryDepth = 100

	maxTxRetries = 5
)
