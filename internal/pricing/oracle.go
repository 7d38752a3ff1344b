// Package pricing converts the external USD price feed into summon-token
// quotes denominated in the payment asset.
package pricing

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"
)

var (
	ErrZeroAmount   = errors.New("pricing: zero amount")
	ErrBelowMinimum = errors.New("pricing: amount below one whole token")
	ErrInvalidPrice = errors.New("pricing: non-positive price signal")
	ErrStalePrice   = errors.New("pricing: price signal too old")
)

// Oracle is the external price feed: USD per payment-asset unit, 8-decimal
// fixed point, plus the time the signal was produced.
type Oracle interface {
	LatestPrice(ctx context.Context) (price *big.Int, updatedAt time.Time, err error)
}

// StaticOracle serves a fixed price. It stands in for a live feed in
// development and tests; production wires a real feed behind Oracle.
type StaticOracle struct {
	mu      sync.RWMutex
	price   *big.Int
	updated time.Time
}

func NewStaticOracle(price int64) *StaticOracle {
	return &StaticOracle{
		price:   big.NewInt(price),
		updated: time.Now(),
	}
}

func (o *StaticOracle) LatestPrice(ctx context.Context) (*big.Int, time.Time, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return new(big.Int).Set(o.price), o.updated, nil
}

// SetPrice replaces the served price, refreshing the timestamp.
func (o *StaticOracle) SetPrice(price *big.Int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.price = new(big.Int).Set(price)
	o.updated = time.Now()
}
