package randomness

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"go.uber.org/zap"

	"beast-summon-backend/internal/models"
)

// LocalProvider is an in-process randomness source for development and tests.
// Request returns a fresh id synchronously; a goroutine delivers 32 bytes of
// crypto/rand entropy after a configurable delay, once per request. Deployed
// systems fulfill through the /vrf/fulfill callback instead, but the contract
// is the same: at most one delivery per request id.
type LocalProvider struct {
	delay     time.Duration
	fulfiller Fulfiller
	log       *zap.Logger
}

func NewLocalProvider(delay time.Duration, log *zap.Logger) *LocalProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalProvider{delay: delay, log: log}
}

// SetFulfiller wires the engine in after construction; the engine needs the
// provider first, so the cycle is broken here.
func (p *LocalProvider) SetFulfiller(f Fulfiller) {
	p.fulfiller = f
}

func (p *LocalProvider) Request(ctx context.Context, userID int64) (string, error) {
	if p.fulfiller == nil {
		return "", fmt.Errorf("randomness: no fulfiller wired")
	}

	requestID := models.GenerateRequestID()
	go p.deliver(requestID)
	return requestID, nil
}

func (p *LocalProvider) deliver(requestID string) {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}

	value := make([]byte, 32)
	if _, err := rand.Read(value); err != nil {
		p.log.Error("randomness generation failed, request will never fulfill",
			zap.String("request_id", requestID), zap.Error(err))
		return
	}

	if _, err := p.fulfiller.HandleFulfillment(context.Background(), requestID, value); err != nil {
		p.log.Warn("fulfillment rejected",
			zap.String("request_id", requestID), zap.Error(err))
	}
}
