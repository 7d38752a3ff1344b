package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"beast-summon-backend/internal/models"
	"beast-summon-backend/internal/pricing"
	"beast-summon-backend/internal/services"
)

type StoreHandler struct {
	purchases *services.PurchaseService
	ledger    *services.LedgerService
	log       *zap.Logger
}

func NewStoreHandler(purchases *services.PurchaseService, ledger *services.LedgerService, log *zap.Logger) *StoreHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StoreHandler{purchases: purchases, ledger: ledger, log: log}
}

func walletView(wallet *models.Wallet) gin.H {
	return gin.H{
		"asset_balance":   wallet.AssetBalance,
		"token_balance":   wallet.TokenBalance,
		"total_deposited": wallet.TotalDeposited,
		"total_purchased": wallet.TotalPurchased,
		"total_burned":    wallet.TotalBurned,
		"summons":         wallet.Summons,
	}
}

// GetQuote prices a prospective purchase without touching any state.
func (h *StoreHandler) GetQuote(c *gin.Context) {
	amount, err := models.ParseAmount(c.Query("amount"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount", "details": err.Error()})
		return
	}

	quote, err := h.purchases.Quote(c.Request.Context(), amount.Big())
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, pricing.ErrInvalidPrice) || errors.Is(err, pricing.ErrStalePrice) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": "Quote failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"amount": amount,
		"quote":  models.AmountFromBig(quote),
	})
}

// Deposit credits the caller's own payment-asset balance (development
// faucet). Deposits aimed at any other account do not exist as an operation.
func (h *StoreHandler) Deposit(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	amount, err := models.ParseAmount(req.Amount)
	if err != nil || amount.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
		return
	}

	if err := h.ledger.DepositAsset(c.Request.Context(), userID, amount.Big()); err != nil {
		if errors.Is(err, services.ErrCustodyTarget) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Transfers to the custody account are rejected"})
			return
		}
		h.log.Error("deposit failed", zap.Int64("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Deposit failed"})
		return
	}

	h.ledger.SaveTransaction(c.Request.Context(), &models.Transaction{
		ID:          models.GenerateTransactionID(),
		UserID:      userID,
		Type:        models.TransactionTypeDeposit,
		Amount:      amount,
		Description: "asset deposit",
		CreatedAt:   time.Now(),
	})

	wallet, _ := h.ledger.GetWallet(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"success": true, "wallet": walletView(wallet)})
}

func (h *StoreHandler) Purchase(c *gin.Context) {
	userID := c.GetInt64("user_id")

	allowed, err := h.ledger.CheckRateLimit(c.Request.Context(), userID, "purchase", 30, time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many purchases. Please wait."})
		return
	}

	var req models.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	payment, err := models.ParseAmount(req.Payment)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment"})
		return
	}
	amount, err := models.ParseAmount(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
		return
	}

	result, err := h.purchases.Purchase(c.Request.Context(), userID, payment.Big(), amount.Big())
	if err != nil {
		switch {
		case errors.Is(err, pricing.ErrZeroAmount), errors.Is(err, pricing.ErrBelowMinimum):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount", "details": err.Error()})
		case errors.Is(err, services.ErrUnderpaid):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Underpaid", "details": err.Error()})
		case errors.Is(err, pricing.ErrInvalidPrice), errors.Is(err, pricing.ErrStalePrice):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Price feed unavailable", "details": err.Error()})
		case errors.Is(err, services.ErrRefundFailed):
			h.log.Error("purchase refund failed", zap.Int64("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Purchase failed", "details": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Purchase failed", "details": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "purchase": result})
}
