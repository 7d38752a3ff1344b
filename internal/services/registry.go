package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"beast-summon-backend/internal/models"
)

// BeastRegistry stores minted beasts and per-user collections. Only the gacha
// engine is handed a reference, which is what restricts minting to the
// engine's identity.
type BeastRegistry struct {
	client *redis.Client
	log    *zap.Logger
}

func NewBeastRegistry(ledger *LedgerService, log *zap.Logger) *BeastRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	return &BeastRegistry{client: ledger.client, log: log}
}

// Mint assigns the new beast its identity and persists it. Exactly one beast
// record exists per fulfilled roll.
func (r *BeastRegistry) Mint(ctx context.Context, beast *models.MintedBeast) (string, error) {
	beast.BeastID = models.GenerateBeastID()

	data, err := json.Marshal(beast)
	if err != nil {
		return "", fmt.Errorf("marshal beast: %w", err)
	}

	if err := r.client.Set(ctx, fmt.Sprintf(KeyBeast, beast.BeastID), data, 0).Err(); err != nil {
		return "", fmt.Errorf("save beast: %w", err)
	}

	ownerKey := fmt.Sprintf(KeyUserBeasts, beast.OwnerID)
	if err := r.client.ZAdd(ctx, ownerKey, redis.Z{
		Score:  float64(beast.MintedAt.UnixNano()),
		Member: beast.BeastID,
	}).Err(); err != nil {
		return "", fmt.Errorf("index beast: %w", err)
	}
	r.client.Incr(ctx, KeyBeastCount)

	return beast.BeastID, nil
}

func (r *BeastRegistry) GetBeast(ctx context.Context, beastID string) (*models.MintedBeast, error) {
	data, err := r.client.Get(ctx, fmt.Sprintf(KeyBeast, beastID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get beast %s: %w", beastID, err)
	}
	var beast models.MintedBeast
	if err := json.Unmarshal([]byte(data), &beast); err != nil {
		return nil, fmt.Errorf("unmarshal beast %s: %w", beastID, err)
	}
	return &beast, nil
}

// GetUserBeasts returns a user's collection, newest first.
func (r *BeastRegistry) GetUserBeasts(ctx context.Context, userID int64, limit int64) ([]*models.MintedBeast, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	ids, err := r.client.ZRevRange(ctx, fmt.Sprintf(KeyUserBeasts, userID), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}

	beasts := make([]*models.MintedBeast, 0, len(ids))
	for _, id := range ids {
		beast, err := r.GetBeast(ctx, id)
		if err != nil {
			r.log.Warn("collection entry missing", zap.String("beast_id", id), zap.Error(err))
			continue
		}
		beasts = append(beasts, beast)
	}
	return beasts, nil
}

// TotalMinted reports the global mint counter.
func (r *BeastRegistry) TotalMinted(ctx context.Context) (int64, error) {
	n, err := r.client.Get(ctx, KeyBeastCount).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
