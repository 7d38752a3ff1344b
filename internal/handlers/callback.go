package handlers

import (
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"beast-summon-backend/internal/gacha"
	"beast-summon-backend/internal/models"
)

// CallbackHandler receives randomness fulfillments from an external provider.
// The route is HMAC-guarded by ProviderAuthMiddleware; the engine enforces
// the at-most-once contract per request id.
type CallbackHandler struct {
	engine *gacha.Engine
	log    *zap.Logger
}

func NewCallbackHandler(engine *gacha.Engine, log *zap.Logger) *CallbackHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CallbackHandler{engine: engine, log: log}
}

func (h *CallbackHandler) Fulfill(c *gin.Context) {
	var req models.FulfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	randomValue, err := hex.DecodeString(req.RandomValue)
	if err != nil || len(randomValue) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid random value"})
		return
	}

	beast, err := h.engine.HandleFulfillment(c.Request.Context(), req.RequestID, randomValue)
	if err != nil {
		if errors.Is(err, gacha.ErrUnknownRequest) {
			// Stale or replayed delivery. Rejected, never minted.
			c.JSON(http.StatusGone, gin.H{"error": "Unknown or already-consumed request id"})
			return
		}
		h.log.Error("fulfillment processing failed", zap.String("request_id", req.RequestID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Fulfillment failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "beast": beast})
}
