package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"beast-summon-backend/internal/models"
	"beast-summon-backend/internal/services"
)

type AuthHandler struct {
	ledger     *services.LedgerService
	jwtService *services.JWTService
	log        *zap.Logger
}

func NewAuthHandler(ledger *services.LedgerService, jwtService *services.JWTService, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{ledger: ledger, jwtService: jwtService, log: log}
}

// Login issues a session token for the given user id. The custody account is
// not a real user and cannot log in.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if req.UserID == models.CustodyUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Reserved user id"})
		return
	}

	token, sessionID, err := h.jwtService.GenerateToken(req.UserID, req.Username)
	if err != nil {
		h.log.Error("token generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	session := &models.UserSession{
		UserID:       req.UserID,
		SessionID:    sessionID,
		Username:     req.Username,
		CreatedAt:    time.Now(),
		LastAccessed: time.Now(),
	}
	if err := h.ledger.StoreUserSession(c.Request.Context(), session, services.TTLUserSession); err != nil {
		h.log.Error("session store failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"session_id": sessionID,
		"user_id":    req.UserID,
	})
}
