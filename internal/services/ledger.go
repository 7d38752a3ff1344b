package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"beast-summon-backend/internal/config"
	"beast-summon-backend/internal/models"
)

var (
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrCustodyTarget       = errors.New("ledger: direct transfers to the custody account are rejected")
)

// LedgerService is the Redis-backed token ledger. Wallets are JSON blobs;
// every balance mutation is an optimistic WATCH transaction over the touched
// wallet keys, so concurrent operations never observe a half-applied move.
// The engine custody account (user 0) holds in-flight pulls; its TotalBurned
// field is the global burned supply.
type LedgerService struct {
	client *redis.Client
	log    *zap.Logger
}

func NewLedgerService(cfg *config.Config, log *zap.Logger) (*LedgerService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LedgerService{client: client, log: log}, nil
}

func (s *LedgerService) Close() error {
	return s.client.Close()
}

func (s *LedgerService) GetWallet(ctx context.Context, userID int64) (*models.Wallet, error) {
	key := fmt.Sprintf(KeyWallet, userID)

	data, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return models.NewWallet(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet %d: %w", userID, err)
	}

	var wallet models.Wallet
	if err := json.Unmarshal([]byte(data), &wallet); err != nil {
		return nil, fmt.Errorf("unmarshal wallet %d: %w", userID, err)
	}
	return &wallet, nil
}

// withWallets runs fn over the named wallets inside a WATCH transaction and
// writes all of them back atomically. Contention retries a few times before
// giving up.
func (s *LedgerService) withWallets(ctx context.Context, ids []int64, fn func(map[int64]*models.Wallet) error) error {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf(KeyWallet, id)
	}

	txn := func(tx *redis.Tx) error {
		wallets := make(map[int64]*models.Wallet, len(ids))
		for i, id := range ids {
			data, err := tx.Get(ctx, keys[i]).Result()
			switch {
			case errors.Is(err, redis.Nil):
				wallets[id] = models.NewWallet(id)
			case err != nil:
				return fmt.Errorf("get wallet %d: %w", id, err)
			default:
				var w models.Wallet
				if err := json.Unmarshal([]byte(data), &w); err != nil {
					return fmt.Errorf("unmarshal wallet %d: %w", id, err)
				}
				wallets[id] = &w
			}
		}

		if err := fn(wallets); err != nil {
			return err
		}

		now := time.Now()
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, id := range ids {
				wallets[id].UpdatedAt = now
				data, err := json.Marshal(wallets[id])
				if err != nil {
					return fmt.Errorf("marshal wallet %d: %w", id, err)
				}
				pipe.Set(ctx, keys[i], data, 0)
			}
			return nil
		})
		return err
	}

	var lastErr error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txn, keys...)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			lastErr = err
			continue
		}
		return err
	}
	return fmt.Errorf("wallet transaction contention: %w", lastErr)
}

// DepositAsset credits the user's own payment-asset balance. The custody
// account can never be a deposit target: un-requested transfers into engine
// custody are rejected unconditionally.
func (s *LedgerService) DepositAsset(ctx context.Context, userID int64, amount *big.Int) error {
	if userID == models.CustodyUserID {
		return ErrCustodyTarget
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("ledger: invalid deposit amount")
	}
	return s.withWallets(ctx, []int64{userID}, func(w map[int64]*models.Wallet) error {
		w[userID].AssetBalance.Add(&w[userID].AssetBalance.Int, amount)
		w[userID].TotalDeposited.Add(&w[userID].TotalDeposited.Int, amount)
		return nil
	})
}

func (s *LedgerService) AssetBalance(ctx context.Context, userID int64) (*big.Int, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return wallet.AssetBalance.Big(), nil
}

func (s *LedgerService) TokenBalance(ctx context.Context, userID int64) (*big.Int, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return wallet.TokenBalance.Big(), nil
}

// PullAsset moves payment from the user into engine custody.
func (s *LedgerService) PullAsset(ctx context.Context, userID int64, amount *big.Int) error {
	return s.withWallets(ctx, []int64{userID, models.CustodyUserID}, func(w map[int64]*models.Wallet) error {
		user, custody := w[userID], w[models.CustodyUserID]
		if user.AssetBalance.Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}
		user.AssetBalance.Sub(&user.AssetBalance.Int, amount)
		custody.AssetBalance.Add(&custody.AssetBalance.Int, amount)
		return nil
	})
}

// RefundAsset returns payment from custody to the user.
func (s *LedgerService) RefundAsset(ctx context.Context, userID int64, amount *big.Int) error {
	return s.withWallets(ctx, []int64{userID, models.CustodyUserID}, func(w map[int64]*models.Wallet) error {
		user, custody := w[userID], w[models.CustodyUserID]
		if custody.AssetBalance.Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}
		custody.AssetBalance.Sub(&custody.AssetBalance.Int, amount)
		user.AssetBalance.Add(&user.AssetBalance.Int, amount)
		return nil
	})
}

// CreditTokens mints purchased summon tokens into the buyer's wallet.
func (s *LedgerService) CreditTokens(ctx context.Context, userID int64, amount *big.Int) error {
	return s.withWallets(ctx, []int64{userID}, func(w map[int64]*models.Wallet) error {
		w[userID].TokenBalance.Add(&w[userID].TokenBalance.Int, amount)
		w[userID].TotalPurchased.Add(&w[userID].TotalPurchased.Int, amount)
		return nil
	})
}

// DebitTokens unwinds a token credit when a later step of the same purchase
// fails.
func (s *LedgerService) DebitTokens(ctx context.Context, userID int64, amount *big.Int) error {
	return s.withWallets(ctx, []int64{userID}, func(w map[int64]*models.Wallet) error {
		user := w[userID]
		if user.TokenBalance.Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}
		user.TokenBalance.Sub(&user.TokenBalance.Int, amount)
		user.TotalPurchased.Sub(&user.TotalPurchased.Int, amount)
		return nil
	})
}

// PullTokens moves the roll price from the user into engine custody.
func (s *LedgerService) PullTokens(ctx context.Context, userID int64, amount *big.Int) error {
	return s.withWallets(ctx, []int64{userID, models.CustodyUserID}, func(w map[int64]*models.Wallet) error {
		user, custody := w[userID], w[models.CustodyUserID]
		if user.TokenBalance.Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}
		user.TokenBalance.Sub(&user.TokenBalance.Int, amount)
		custody.TokenBalance.Add(&custody.TokenBalance.Int, amount)
		return nil
	})
}

// BurnTokens destroys custody tokens, attributing the burn to the rolling
// user. Custody's TotalBurned tracks the global destroyed supply.
func (s *LedgerService) BurnTokens(ctx context.Context, userID int64, amount *big.Int) error {
	return s.withWallets(ctx, []int64{userID, models.CustodyUserID}, func(w map[int64]*models.Wallet) error {
		user, custody := w[userID], w[models.CustodyUserID]
		if custody.TokenBalance.Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}
		custody.TokenBalance.Sub(&custody.TokenBalance.Int, amount)
		custody.TotalBurned.Add(&custody.TotalBurned.Int, amount)
		user.TotalBurned.Add(&user.TotalBurned.Int, amount)
		return nil
	})
}

// RestoreTokens compensates an aborted roll: the pulled amount goes back to
// the user, coming out of custody if it is still there or out of the burned
// totals if the burn had already happened. Rolls are serialized by the
// engine, so at most one pull is ever in flight.
func (s *LedgerService) RestoreTokens(ctx context.Context, userID int64, amount *big.Int) error {
	return s.withWallets(ctx, []int64{userID, models.CustodyUserID}, func(w map[int64]*models.Wallet) error {
		user, custody := w[userID], w[models.CustodyUserID]

		fromCustody := new(big.Int).Set(amount)
		if custody.TokenBalance.Cmp(fromCustody) < 0 {
			fromCustody.Set(&custody.TokenBalance.Int)
		}
		unburn := new(big.Int).Sub(amount, fromCustody)

		custody.TokenBalance.Sub(&custody.TokenBalance.Int, fromCustody)
		if unburn.Sign() > 0 {
			custody.TotalBurned.Sub(&custody.TotalBurned.Int, unburn)
			user.TotalBurned.Sub(&user.TotalBurned.Int, unburn)
		}
		user.TokenBalance.Add(&user.TokenBalance.Int, amount)
		return nil
	})
}

// TotalBurned reports the global destroyed token supply.
func (s *LedgerService) TotalBurned(ctx context.Context) (*big.Int, error) {
	custody, err := s.GetWallet(ctx, models.CustodyUserID)
	if err != nil {
		return nil, err
	}
	return custody.TotalBurned.Big(), nil
}

func (s *LedgerService) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}

	txKey := fmt.Sprintf(KeyTransaction, tx.ID)
	if err := s.client.Set(ctx, txKey, data, TTLTransaction).Err(); err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}

	userKey := fmt.Sprintf(KeyUserTransactions, tx.UserID)
	if err := s.client.ZAdd(ctx, userKey, redis.Z{
		Score:  float64(tx.CreatedAt.UnixNano()),
		Member: tx.ID,
	}).Err(); err != nil {
		return fmt.Errorf("index transaction: %w", err)
	}
	s.client.ZRemRangeByRank(ctx, userKey, 0, int64(-HistoryDepth-1))
	return nil
}

func (s *LedgerService) GetUserTransactions(ctx context.Context, userID int64, limit int64) ([]*models.Transaction, error) {
	if limit <= 0 || limit > HistoryDepth {
		limit = 50
	}

	userKey := fmt.Sprintf(KeyUserTransactions, userID)
	ids, err := s.client.ZRevRange(ctx, userKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("get transaction ids: %w", err)
	}

	transactions := make([]*models.Transaction, 0, len(ids))
	for _, id := range ids {
		data, err := s.client.Get(ctx, fmt.Sprintf(KeyTransaction, id)).Result()
		if err != nil {
			continue
		}
		var tx models.Transaction
		if err := json.Unmarshal([]byte(data), &tx); err != nil {
			continue
		}
		transactions = append(transactions, &tx)
	}
	return transactions, nil
}

func (s *LedgerService) CheckRateLimit(ctx context.Context, userID int64, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, userID, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit check: %w", err)
	}
	if count == 1 {
		s.client.Expire(ctx, key, window)
	}
	return count <= int64(limit), nil
}

func (s *LedgerService) DeleteWallet(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyWallet, userID)).Err()
}
