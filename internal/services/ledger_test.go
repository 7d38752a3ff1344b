package services_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beast-summon-backend/internal/config"
	"beast-summon-backend/internal/models"
	"beast-summon-backend/internal/services"
)

// newTestLedger connects to the local Redis instance, using DB 15 to stay out
// of any development data. The suite is skipped when Redis is not running.
func newTestLedger(t *testing.T) *services.LedgerService {
	t.Helper()

	cfg := &config.Config{RedisURL: "localhost:6379", RedisDB: 15}
	ledger, err := services.NewLedgerService(cfg, nil)
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

func resetWallets(t *testing.T, ledger *services.LedgerService, ids ...int64) {
	t.Helper()
	ctx := context.Background()
	for _, id := range ids {
		require.NoError(t, ledger.DeleteWallet(ctx, id))
	}
	t.Cleanup(func() {
		for _, id := range ids {
			ledger.DeleteWallet(context.Background(), id)
		}
	})
}

func TestLedgerDepositAndBalance(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	const userID int64 = 9001
	resetWallets(t, ledger, userID)

	require.NoError(t, ledger.DepositAsset(ctx, userID, big.NewInt(500)))
	require.NoError(t, ledger.DepositAsset(ctx, userID, big.NewInt(250)))

	balance, err := ledger.AssetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(750), balance.Int64())

	wallet, err := ledger.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(750), wallet.TotalDeposited.Int64())
}

func TestLedgerDepositRejectsCustody(t *testing.T) {
	ledger := newTestLedger(t)

	err := ledger.DepositAsset(context.Background(), models.CustodyUserID, big.NewInt(100))
	assert.ErrorIs(t, err, services.ErrCustodyTarget)
}

func TestLedgerPullAndRefundAsset(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	const userID int64 = 9002
	resetWallets(t, ledger, userID, models.CustodyUserID)

	require.NoError(t, ledger.DepositAsset(ctx, userID, big.NewInt(1000)))
	require.NoError(t, ledger.PullAsset(ctx, userID, big.NewInt(600)))

	balance, err := ledger.AssetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(400), balance.Int64())

	custody, err := ledger.AssetBalance(ctx, models.CustodyUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(600), custody.Int64())

	require.NoError(t, ledger.RefundAsset(ctx, userID, big.NewInt(600)))
	balance, err = ledger.AssetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance.Int64())
}

func TestLedgerPullAssetInsufficient(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	const userID int64 = 9003
	resetWallets(t, ledger, userID)

	err := ledger.PullAsset(ctx, userID, big.NewInt(1))
	assert.ErrorIs(t, err, services.ErrInsufficientBalance)
}

func TestLedgerBurnLifecycle(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	const userID int64 = 9004
	resetWallets(t, ledger, userID, models.CustodyUserID)

	require.NoError(t, ledger.CreditTokens(ctx, userID, big.NewInt(3000)))
	require.NoError(t, ledger.PullTokens(ctx, userID, big.NewInt(1000)))
	require.NoError(t, ledger.BurnTokens(ctx, userID, big.NewInt(1000)))

	balance, err := ledger.TokenBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), balance.Int64())

	burned, err := ledger.TotalBurned(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), burned.Int64())

	wallet, err := ledger.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), wallet.TotalBurned.Int64())
}

func TestLedgerRestoreAfterBurn(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	const userID int64 = 9005
	resetWallets(t, ledger, userID, models.CustodyUserID)

	require.NoError(t, ledger.CreditTokens(ctx, userID, big.NewInt(1000)))
	require.NoError(t, ledger.PullTokens(ctx, userID, big.NewInt(1000)))
	require.NoError(t, ledger.BurnTokens(ctx, userID, big.NewInt(1000)))

	// Restoring after the burn reverses both the pull and the burn totals.
	require.NoError(t, ledger.RestoreTokens(ctx, userID, big.NewInt(1000)))

	balance, err := ledger.TokenBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance.Int64())

	burned, err := ledger.TotalBurned(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), burned.Int64())
}

func TestLedgerRestoreBeforeBurn(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	const userID int64 = 9006
	resetWallets(t, ledger, userID, models.CustodyUserID)

	require.NoError(t, ledger.CreditTokens(ctx, userID, big.NewInt(1000)))
	require.NoError(t, ledger.PullTokens(ctx, userID, big.NewInt(1000)))

	// Tokens still sit in custody; the restore drains custody, not the
	// burned totals.
	require.NoError(t, ledger.RestoreTokens(ctx, userID, big.NewInt(1000)))

	balance, err := ledger.TokenBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance.Int64())

	custody, err := ledger.TokenBalance(ctx, models.CustodyUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), custody.Int64())
}

func TestLedgerBigBalances(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	const userID int64 = 9007
	resetWallets(t, ledger, userID)

	// 10^24 base units overflows int64; it must survive the JSON roundtrip.
	huge, _ := new(big.Int).SetString("1000000000000000000000000", 10)
	require.NoError(t, ledger.DepositAsset(ctx, userID, huge))

	balance, err := ledger.AssetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, huge, balance)
}

func TestLedgerTransactionHistory(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	const userID int64 = 9008
	resetWallets(t, ledger, userID)

	for i := 0; i < 3; i++ {
		tx := &models.Transaction{
			ID:        models.GenerateTransactionID(),
			UserID:    userID,
			Type:      models.TransactionTypeDeposit,
			Amount:    models.AmountFromBig(big.NewInt(int64(100 * (i + 1)))),
			CreatedAt: time.Now().Add(time.Duration(i) * time.Millisecond),
		}
		require.NoError(t, ledger.SaveTransaction(ctx, tx))
	}

	txs, err := ledger.GetUserTransactions(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	// Newest first.
	assert.Equal(t, "300", txs[0].Amount.String())
}

func TestLedgerRateLimit(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	const userID int64 = 9009

	for i := 0; i < 3; i++ {
		ok, err := ledger.CheckRateLimit(ctx, userID, "test-action", 3, time.Second)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := ledger.CheckRateLimit(ctx, userID, "test-action", 3, time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}
