package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"beast-summon-backend/internal/gacha"
	"beast-summon-backend/internal/models"
	"beast-summon-backend/internal/services"
)

type SummonHandler struct {
	engine   *gacha.Engine
	catalog  *gacha.Catalog
	registry *services.BeastRegistry
	ledger   *services.LedgerService
	log      *zap.Logger
}

func NewSummonHandler(engine *gacha.Engine, catalog *gacha.Catalog, registry *services.BeastRegistry, ledger *services.LedgerService, log *zap.Logger) *SummonHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SummonHandler{
		engine:   engine,
		catalog:  catalog,
		registry: registry,
		ledger:   ledger,
		log:      log,
	}
}

// Roll starts a summon. The response carries only the ticket: the outcome
// arrives later over the websocket once the randomness provider answers.
func (h *SummonHandler) Roll(c *gin.Context) {
	userID := c.GetInt64("user_id")

	allowed, err := h.ledger.CheckRateLimit(c.Request.Context(), userID, "roll", 30, time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many rolls. Please wait."})
		return
	}

	ticket, err := h.engine.InitiateRoll(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, gacha.ErrRollInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "A roll is already in progress"})
		case errors.Is(err, gacha.ErrInsufficientFunds):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient token balance"})
		case errors.Is(err, gacha.ErrTransferFailed), errors.Is(err, gacha.ErrRandomnessFailed):
			h.log.Error("roll failed", zap.Int64("user_id", userID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Roll failed", "details": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Roll failed", "details": err.Error()})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":    true,
		"request_id": ticket.RequestID,
		"started_at": ticket.StartedAt,
		"price":      models.AmountFromBig(h.engine.RollPrice()),
	})
}

func (h *SummonHandler) GetState(c *gin.Context) {
	userID := c.GetInt64("user_id")

	state, requestID := h.engine.StateOf(userID)
	resp := gin.H{"state": state}
	if requestID != "" {
		resp["request_id"] = requestID
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SummonHandler) GetCollection(c *gin.Context) {
	userID := c.GetInt64("user_id")
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "100"), 10, 64)

	beasts, err := h.registry.GetUserBeasts(c.Request.Context(), userID, limit)
	if err != nil {
		h.log.Error("collection read failed", zap.Int64("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load collection"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"beasts": beasts, "count": len(beasts)})
}

func (h *SummonHandler) GetHistory(c *gin.Context) {
	userID := c.GetInt64("user_id")
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	transactions, err := h.ledger.GetUserTransactions(c.Request.Context(), userID, limit)
	if err != nil {
		h.log.Error("history read failed", zap.Int64("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// GetTemplates lists the summonable catalog.
func (h *SummonHandler) GetTemplates(c *gin.Context) {
	templates := h.catalog.Templates()
	out := make([]gin.H, 0, len(templates))
	for _, t := range templates {
		out = append(out, gin.H{
			"template_id": t.TemplateID,
			"element":     t.Element.String(),
			"image_uri":   t.ImageURI,
		})
	}
	c.JSON(http.StatusOK, gin.H{"templates": out})
}
