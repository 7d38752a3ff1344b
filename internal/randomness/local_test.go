package randomness_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beast-summon-backend/internal/models"
	"beast-summon-backend/internal/randomness"
)

type recordingFulfiller struct {
	mu    sync.Mutex
	calls map[string][][]byte
	done  chan string
}

func newRecordingFulfiller() *recordingFulfiller {
	return &recordingFulfiller{
		calls: make(map[string][][]byte),
		done:  make(chan string, 16),
	}
}

func (f *recordingFulfiller) HandleFulfillment(ctx context.Context, requestID string, randomValue []byte) (*models.MintedBeast, error) {
	f.mu.Lock()
	f.calls[requestID] = append(f.calls[requestID], randomValue)
	f.mu.Unlock()
	f.done <- requestID
	return &models.MintedBeast{RequestID: requestID}, nil
}

func TestLocalProviderDeliversOnce(t *testing.T) {
	fulfiller := newRecordingFulfiller()
	provider := randomness.NewLocalProvider(time.Millisecond, nil)
	provider.SetFulfiller(fulfiller)

	requestID, err := provider.Request(context.Background(), 42)
	require.NoError(t, err)
	require.NotEmpty(t, requestID)

	select {
	case delivered := <-fulfiller.done:
		assert.Equal(t, requestID, delivered)
	case <-time.After(2 * time.Second):
		t.Fatal("fulfillment never arrived")
	}

	fulfiller.mu.Lock()
	defer fulfiller.mu.Unlock()
	require.Len(t, fulfiller.calls[requestID], 1)
	assert.Len(t, fulfiller.calls[requestID][0], 32)
}

func TestLocalProviderUniqueRequestIDs(t *testing.T) {
	fulfiller := newRecordingFulfiller()
	provider := randomness.NewLocalProvider(0, nil)
	provider.SetFulfiller(fulfiller)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id, err := provider.Request(context.Background(), int64(i))
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
	for i := 0; i < 20; i++ {
		<-fulfiller.done
	}
}

func TestLocalProviderRequiresFulfiller(t *testing.T) {
	provider := randomness.NewLocalProvider(0, nil)

	_, err := provider.Request(context.Background(), 42)
	assert.Error(t, err)
}
