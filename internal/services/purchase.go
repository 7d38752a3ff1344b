package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"beast-summon-backend/internal/models"
	"beast-summon-backend/internal/pricing"
)

var (
	ErrUnderpaid    = errors.New("purchase: supplied payment below quote")
	ErrRefundFailed = errors.New("purchase: overpayment refund failed")
)

// purchaseLedger is the slice of the ledger the purchase flow needs.
type purchaseLedger interface {
	PullAsset(ctx context.Context, userID int64, amount *big.Int) error
	RefundAsset(ctx context.Context, userID int64, amount *big.Int) error
	CreditTokens(ctx context.Context, userID int64, amount *big.Int) error
	DebitTokens(ctx context.Context, userID int64, amount *big.Int) error
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
}

type PurchaseNotifier interface {
	TokenPurchased(userID int64, amount *models.Amount)
}

type PurchaseResult struct {
	Tokens   *models.Amount `json:"tokens"`
	Paid     *models.Amount `json:"paid"`
	Refunded *models.Amount `json:"refunded"`
}

// PurchaseService sells summon tokens at the live oracle quote. Overpayment
// is returned to the cent; a failed refund unwinds the whole purchase.
type PurchaseService struct {
	ledger   purchaseLedger
	quoter   *pricing.Quoter
	notifier PurchaseNotifier
	log      *zap.Logger
}

func NewPurchaseService(ledger purchaseLedger, quoter *pricing.Quoter, log *zap.Logger) *PurchaseService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PurchaseService{ledger: ledger, quoter: quoter, log: log}
}

func (s *PurchaseService) SetNotifier(n PurchaseNotifier) {
	s.notifier = n
}

func (s *PurchaseService) Quote(ctx context.Context, amount *big.Int) (*big.Int, error) {
	return s.quoter.Quote(ctx, amount)
}

// Purchase exchanges `payment` asset base units for `amount` token base
// units. Any failure leaves no effect behind: later steps compensate earlier
// ones before the error is returned.
func (s *PurchaseService) Purchase(ctx context.Context, userID int64, payment, amount *big.Int) (*PurchaseResult, error) {
	if userID == models.CustodyUserID {
		return nil, ErrCustodyTarget
	}
	if payment == nil || payment.Sign() <= 0 {
		return nil, fmt.Errorf("purchase: invalid payment")
	}

	required, err := s.quoter.Quote(ctx, amount)
	if err != nil {
		return nil, err
	}
	if payment.Cmp(required) < 0 {
		return nil, fmt.Errorf("%w: need %s, got %s", ErrUnderpaid, required, payment)
	}

	if err := s.ledger.PullAsset(ctx, userID, payment); err != nil {
		return nil, fmt.Errorf("purchase: pull payment: %w", err)
	}
	if err := s.ledger.CreditTokens(ctx, userID, amount); err != nil {
		s.unwind(ctx, userID, payment, nil)
		return nil, fmt.Errorf("purchase: credit tokens: %w", err)
	}

	refund := new(big.Int).Sub(payment, required)
	if refund.Sign() > 0 {
		if err := s.ledger.RefundAsset(ctx, userID, refund); err != nil {
			s.unwind(ctx, userID, payment, amount)
			return nil, fmt.Errorf("%w: %v", ErrRefundFailed, err)
		}
	}

	now := time.Now()
	s.record(ctx, &models.Transaction{
		ID:          models.GenerateTransactionID(),
		UserID:      userID,
		Type:        models.TransactionTypePurchase,
		Amount:      models.AmountFromBig(amount),
		Description: fmt.Sprintf("purchased tokens for %s asset units", required),
		CreatedAt:   now,
	})
	if refund.Sign() > 0 {
		s.record(ctx, &models.Transaction{
			ID:          models.GenerateTransactionID(),
			UserID:      userID,
			Type:        models.TransactionTypeRefund,
			Amount:      models.AmountFromBig(refund),
			Description: "overpayment refund",
			CreatedAt:   now,
		})
	}

	if s.notifier != nil {
		s.notifier.TokenPurchased(userID, models.AmountFromBig(amount))
	}
	s.log.Info("tokens purchased",
		zap.Int64("user_id", userID),
		zap.String("amount", amount.String()),
		zap.String("paid", required.String()),
		zap.String("refunded", refund.String()))

	return &PurchaseResult{
		Tokens:   models.AmountFromBig(amount),
		Paid:     models.AmountFromBig(required),
		Refunded: models.AmountFromBig(refund),
	}, nil
}

// unwind reverses a partially applied purchase. tokens may be nil when the
// credit step never ran.
func (s *PurchaseService) unwind(ctx context.Context, userID int64, payment, tokens *big.Int) {
	if tokens != nil {
		if err := s.ledger.DebitTokens(ctx, userID, tokens); err != nil {
			s.log.Error("purchase unwind: token debit failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	if err := s.ledger.RefundAsset(ctx, userID, payment); err != nil {
		s.log.Error("purchase unwind: payment return failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (s *PurchaseService) record(ctx context.Context, tx *models.Transaction) {
	if err := s.ledger.SaveTransaction(ctx, tx); err != nil {
		s.log.Warn("transaction record failed", zap.String("tx_id", tx.ID), zap.Error(err))
	}
}
