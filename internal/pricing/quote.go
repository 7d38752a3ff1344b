package pricing

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"beast-summon-backend/internal/models"
)

// Quoter prices summon-token purchases. It holds no mutable state and is
// safe for concurrent use; every quote re-reads the live oracle signal.
type Quoter struct {
	oracle        Oracle
	tokenPriceUSD *big.Int // USD per whole token, 8-decimal fixed point
	maxAge        time.Duration
}

func NewQuoter(oracle Oracle, tokenPriceUSD int64, maxAge time.Duration) *Quoter {
	return &Quoter{
		oracle:        oracle,
		tokenPriceUSD: big.NewInt(tokenPriceUSD),
		maxAge:        maxAge,
	}
}

// Quote returns the payment-asset cost, in 18-decimal base units, of buying
// `amount` token base units. Fractional whole tokens are not sold.
func (q *Quoter) Quote(ctx context.Context, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() == 0 {
		return nil, ErrZeroAmount
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative amount", ErrZeroAmount)
	}
	if amount.Cmp(models.TokenUnit) < 0 {
		return nil, ErrBelowMinimum
	}

	price, updatedAt, err := q.oracle.LatestPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	if q.maxAge > 0 && time.Since(updatedAt) > q.maxAge {
		return nil, ErrStalePrice
	}

	// Asset base units per whole token: tokenPriceUSD * 1e18 / assetPriceUSD.
	// Both sides share the 8-decimal price scale, so it cancels.
	oneToken := new(big.Int).Mul(q.tokenPriceUSD, models.TokenUnit)
	oneToken.Quo(oneToken, price)

	// Multiply before dividing so sub-token precision is not truncated away.
	quote := new(big.Int).Mul(oneToken, amount)
	quote.Quo(quote, models.TokenUnit)
	return quote, nil
}
