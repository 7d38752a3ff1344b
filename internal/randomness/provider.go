// Package randomness defines the asynchronous randomness protocol: a request
// returns a fresh request id immediately, and the matching random value is
// delivered exactly once at some later point through the fulfiller callback.
package randomness

import (
	"context"

	"beast-summon-backend/internal/models"
)

// Fulfiller receives deliveries. The gacha engine implements it.
type Fulfiller interface {
	HandleFulfillment(ctx context.Context, requestID string, randomValue []byte) (*models.MintedBeast, error)
}
