package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"beast-summon-backend/internal/models"
)

func (s *LedgerService) StoreUserSession(ctx context.Context, session *models.UserSession, expiry time.Duration) error {
	key := fmt.Sprintf(KeyUserSession, session.UserID, session.SessionID)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, key, data, expiry).Err()
}

func (s *LedgerService) GetUserSession(ctx context.Context, userID int64, sessionID string) (*models.UserSession, error) {
	key := fmt.Sprintf(KeyUserSession, userID, sessionID)

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session models.UserSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	session.LastAccessed = time.Now()
	if updated, err := json.Marshal(session); err == nil {
		s.client.Set(ctx, key, updated, TTLUserSession)
	}
	return &session, nil
}

func (s *LedgerService) DeleteUserSession(ctx context.Context, userID int64, sessionID string) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyUserSession, userID, sessionID)).Err()
}
