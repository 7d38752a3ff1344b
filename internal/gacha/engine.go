package gacha

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"

	"beast-summon-backend/internal/models"
)

// Ledger is the summon-token side of the wallet store. PullTokens moves
// tokens from the user into engine custody, BurnTokens destroys custody
// tokens, RestoreTokens compensates both when a later step of the same
// operation fails synchronously.
type Ledger interface {
	TokenBalance(ctx context.Context, userID int64) (*big.Int, error)
	PullTokens(ctx context.Context, userID int64, amount *big.Int) error
	BurnTokens(ctx context.Context, userID int64, amount *big.Int) error
	RestoreTokens(ctx context.Context, userID int64, amount *big.Int) error
}

// RandomnessSource accepts a randomness request and returns a fresh unique
// request id. The matching fulfillment arrives later, from another goroutine
// or another process, via HandleFulfillment. There is no bound on the delay
// and no cancellation: a request that is never fulfilled leaves its user
// rolling forever, by contract with the provider.
type RandomnessSource interface {
	Request(ctx context.Context, userID int64) (string, error)
}

// Registry mints the resolved beast. Only the engine holds a reference, which
// is what restricts minting to the engine's identity.
type Registry interface {
	Mint(ctx context.Context, beast *models.MintedBeast) (string, error)
}

// Journal persists roll tickets and outcome records for history endpoints.
// Journal failures are logged, never surfaced: bookkeeping must not undo an
// already-committed roll.
type Journal interface {
	RecordRollStarted(ctx context.Context, ticket models.RollTicket, burned *big.Int) error
	RecordRollFulfilled(ctx context.Context, ticket models.RollTicket, beast *models.MintedBeast) error
}

// Notifier pushes roll events to connected clients.
type Notifier interface {
	RollStarted(userID int64, requestID string)
	RollFulfilled(userID int64, requestID string, beast *models.MintedBeast)
}

// Engine owns the per-user roll state machine and the request table. A single
// mutex serializes every operation, so an initiate and a fulfillment for the
// same user can never interleave and no caller observes a half-applied roll.
type Engine struct {
	mu      sync.Mutex
	states  map[int64]models.RollState
	tickets map[string]models.RollTicket

	catalog   *Catalog
	ledger    Ledger
	source    RandomnessSource
	registry  Registry
	journal   Journal
	notifier  Notifier
	rollPrice *big.Int
	log       *zap.Logger
}

func NewEngine(catalog *Catalog, ledger Ledger, source RandomnessSource, registry Registry, rollPrice *big.Int, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		states:    make(map[int64]models.RollState),
		tickets:   make(map[string]models.RollTicket),
		catalog:   catalog,
		ledger:    ledger,
		source:    source,
		registry:  registry,
		rollPrice: new(big.Int).Set(rollPrice),
		log:       log,
	}
}

func (e *Engine) SetJournal(j Journal)   { e.journal = j }
func (e *Engine) SetNotifier(n Notifier) { e.notifier = n }

func (e *Engine) RollPrice() *big.Int {
	return new(big.Int).Set(e.rollPrice)
}

// StateOf reports a user's roll state and, when rolling, the pending request id.
func (e *Engine) StateOf(userID int64) (models.RollState, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	state := e.stateLocked(userID)
	if state != models.RollStateRolling {
		return state, ""
	}
	for id, t := range e.tickets {
		if t.UserID == userID {
			return state, id
		}
	}
	return state, ""
}

func (e *Engine) stateLocked(userID int64) models.RollState {
	if s, ok := e.states[userID]; ok {
		return s
	}
	return models.RollStateIdle
}

// InitiateRoll starts a paid summon. The payment is pulled and burned before
// the randomness request goes out, so it is forfeit the instant the request
// succeeds — the outcome can never be previewed and aborted. Any synchronous
// failure compensates every earlier effect, leaving nothing observable.
func (e *Engine) InitiateRoll(ctx context.Context, userID int64) (models.RollTicket, error) {
	e.mu.Lock()
	ticket, err := e.initiateLocked(ctx, userID)
	e.mu.Unlock()
	if err != nil {
		return models.RollTicket{}, err
	}

	if e.journal != nil {
		if jerr := e.journal.RecordRollStarted(ctx, ticket, e.rollPrice); jerr != nil {
			e.log.Warn("roll journal write failed",
				zap.String("request_id", ticket.RequestID), zap.Error(jerr))
		}
	}
	if e.notifier != nil {
		e.notifier.RollStarted(userID, ticket.RequestID)
	}
	e.log.Info("roll started",
		zap.Int64("user_id", userID),
		zap.String("request_id", ticket.RequestID))
	return ticket, nil
}

func (e *Engine) initiateLocked(ctx context.Context, userID int64) (models.RollTicket, error) {
	if e.stateLocked(userID) != models.RollStateIdle {
		return models.RollTicket{}, ErrRollInProgress
	}

	balance, err := e.ledger.TokenBalance(ctx, userID)
	if err != nil {
		return models.RollTicket{}, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if balance.Cmp(e.rollPrice) < 0 {
		return models.RollTicket{}, ErrInsufficientFunds
	}

	if err := e.ledger.PullTokens(ctx, userID, e.rollPrice); err != nil {
		return models.RollTicket{}, fmt.Errorf("%w: pull: %v", ErrTransferFailed, err)
	}
	if err := e.ledger.BurnTokens(ctx, userID, e.rollPrice); err != nil {
		e.compensate(ctx, userID)
		return models.RollTicket{}, fmt.Errorf("%w: burn: %v", ErrTransferFailed, err)
	}

	requestID, err := e.source.Request(ctx, userID)
	if err != nil {
		e.compensate(ctx, userID)
		return models.RollTicket{}, fmt.Errorf("%w: %v", ErrRandomnessFailed, err)
	}

	ticket := models.RollTicket{
		RequestID: requestID,
		UserID:    userID,
		StartedAt: time.Now(),
	}
	e.states[userID] = models.RollStateRolling
	e.tickets[requestID] = ticket
	return ticket, nil
}

// compensate re-credits a pulled (and possibly burned) roll price after a
// synchronous failure, reproducing all-or-nothing transaction semantics.
func (e *Engine) compensate(ctx context.Context, userID int64) {
	if err := e.ledger.RestoreTokens(ctx, userID, e.rollPrice); err != nil {
		e.log.Error("roll compensation failed, ledger inconsistent",
			zap.Int64("user_id", userID), zap.Error(err))
	}
}

// HandleFulfillment consumes exactly one randomness delivery. An unknown or
// already-consumed request id is a protocol violation: it is rejected without
// touching any state and must never mint.
func (e *Engine) HandleFulfillment(ctx context.Context, requestID string, randomValue []byte) (*models.MintedBeast, error) {
	e.mu.Lock()
	ticket, ok := e.tickets[requestID]
	if !ok {
		e.mu.Unlock()
		e.log.Warn("fulfillment for unknown request id", zap.String("request_id", requestID))
		return nil, ErrUnknownRequest
	}

	d := Derive(randomValue, requestID, e.catalog.Size())
	template := e.catalog.At(d.BeastIndex)

	beast := &models.MintedBeast{
		OwnerID:    ticket.UserID,
		TemplateID: template.TemplateID,
		Element:    template.Element,
		Rarity:     d.Rarity,
		HP:         d.HP,
		Attack:     d.Attack,
		Defense:    d.Defense,
		RequestID:  requestID,
		MintedAt:   time.Now(),
	}

	// Reset internal state before the external mint call. If the registry
	// could somehow re-enter the engine, the user is already idle and the
	// ticket already consumed.
	delete(e.tickets, requestID)
	e.states[ticket.UserID] = models.RollStateIdle
	e.mu.Unlock()

	beastID, err := e.registry.Mint(ctx, beast)
	if err != nil {
		e.log.Error("mint failed after fulfillment",
			zap.String("request_id", requestID),
			zap.Int64("user_id", ticket.UserID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrMintFailed, err)
	}
	beast.BeastID = beastID

	if e.journal != nil {
		if jerr := e.journal.RecordRollFulfilled(ctx, ticket, beast); jerr != nil {
			e.log.Warn("fulfillment journal write failed",
				zap.String("request_id", requestID), zap.Error(jerr))
		}
	}
	if e.notifier != nil {
		e.notifier.RollFulfilled(ticket.UserID, requestID, beast)
	}
	e.log.Info("roll fulfilled",
		zap.Int64("user_id", ticket.UserID),
		zap.String("request_id", requestID),
		zap.String("beast_id", beastID),
		zap.String("rarity", beast.Rarity.String()))
	return beast, nil
}

// PendingRolls reports how many requests are awaiting fulfillment.
func (e *Engine) PendingRolls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tickets)
}
