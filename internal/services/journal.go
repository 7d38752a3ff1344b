package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/redis/go-redis/v9"

	"beast-summon-backend/internal/models"
)

// The ledger doubles as the engine's roll journal: tickets and burn/mint
// transactions land in Redis so history endpoints can replay them. The
// engine's in-memory tables stay authoritative for the state machine itself.

func (s *LedgerService) RecordRollStarted(ctx context.Context, ticket models.RollTicket, burned *big.Int) error {
	data, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("marshal roll ticket: %w", err)
	}

	ticketKey := fmt.Sprintf(KeyRollTicket, ticket.RequestID)
	if err := s.client.Set(ctx, ticketKey, data, TTLRollTicket).Err(); err != nil {
		return fmt.Errorf("save roll ticket: %w", err)
	}

	rollsKey := fmt.Sprintf(KeyUserRolls, ticket.UserID)
	if err := s.client.ZAdd(ctx, rollsKey, redis.Z{
		Score:  float64(ticket.StartedAt.UnixNano()),
		Member: ticket.RequestID,
	}).Err(); err != nil {
		return fmt.Errorf("index roll ticket: %w", err)
	}
	s.client.ZRemRangeByRank(ctx, rollsKey, 0, int64(-HistoryDepth-1))

	return s.SaveTransaction(ctx, &models.Transaction{
		ID:          models.GenerateTransactionID(),
		UserID:      ticket.UserID,
		Type:        models.TransactionTypeBurn,
		Amount:      models.AmountFromBig(burned),
		RequestID:   ticket.RequestID,
		Description: "summon roll: tokens burned",
		CreatedAt:   ticket.StartedAt,
	})
}

func (s *LedgerService) RecordRollFulfilled(ctx context.Context, ticket models.RollTicket, beast *models.MintedBeast) error {
	// The ticket is consumed; drop it so a replayed fulfillment has nothing
	// to find here either.
	s.client.Del(ctx, fmt.Sprintf(KeyRollTicket, ticket.RequestID))

	if err := s.withWallets(ctx, []int64{ticket.UserID}, func(w map[int64]*models.Wallet) error {
		w[ticket.UserID].Summons++
		return nil
	}); err != nil {
		return err
	}

	return s.SaveTransaction(ctx, &models.Transaction{
		ID:          models.GenerateTransactionID(),
		UserID:      ticket.UserID,
		Type:        models.TransactionTypeMint,
		Amount:      models.NewAmount(0),
		RequestID:   ticket.RequestID,
		BeastID:     beast.BeastID,
		Description: fmt.Sprintf("summoned %s %s beast", beast.Rarity, beast.Element),
		CreatedAt:   beast.MintedAt,
	})
}

// GetRollTicket returns a pending journaled ticket, or nil if none.
func (s *LedgerService) GetRollTicket(ctx context.Context, requestID string) (*models.RollTicket, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(KeyRollTicket, requestID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get roll ticket: %w", err)
	}
	var ticket models.RollTicket
	if err := json.Unmarshal([]byte(data), &ticket); err != nil {
		return nil, fmt.Errorf("unmarshal roll ticket: %w", err)
	}
	return &ticket, nil
}

// GetUserRolls lists a user's most recent roll request ids, newest first.
func (s *LedgerService) GetUserRolls(ctx context.Context, userID int64, limit int64) ([]string, error) {
	if limit <= 0 || limit > HistoryDepth {
		limit = 50
	}
	ids, err := s.client.ZRevRange(ctx, fmt.Sprintf(KeyUserRolls, userID), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("get user rolls: %w", err)
	}
	return ids, nil
}
