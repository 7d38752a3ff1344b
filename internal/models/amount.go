package models

import (
	"fmt"
	"math/big"
	"strings"
)

// Token and payment-asset amounts are 18-decimal fixed point, carried as
// integers in base units. The price feed is 8-decimal fixed point.
var (
	TokenUnit  = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	PriceScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(8), nil)
)

// Amount is an integer base-unit amount that round-trips JSON as a decimal
// string, since 18-decimal values do not fit in a float or an int64.
type Amount struct {
	big.Int
}

func NewAmount(v int64) *Amount {
	a := &Amount{}
	a.SetInt64(v)
	return a
}

func AmountFromBig(v *big.Int) *Amount {
	a := &Amount{}
	if v != nil {
		a.Set(v)
	}
	return a
}

func ParseAmount(s string) (*Amount, error) {
	s = strings.TrimSpace(s)
	a := &Amount{}
	if _, ok := a.SetString(s, 10); !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if a.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	return a, nil
}

func (a *Amount) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte(`"0"`), nil
	}
	return []byte(`"` + a.String() + `"`), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		a.SetInt64(0)
		return nil
	}
	if _, ok := a.SetString(s, 10); !ok {
		return fmt.Errorf("invalid amount %q", s)
	}
	return nil
}

func (a *Amount) Big() *big.Int {
	if a == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(&a.Int)
}

func (a *Amount) Clone() *Amount {
	return AmountFromBig(a.Big())
}

func (a *Amount) IsZero() bool {
	return a == nil || a.Sign() == 0
}
