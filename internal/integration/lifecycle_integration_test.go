package integration

import (
	"context"
	"testing"
	"time"

	"mining_hub/internal/domain"
	"mining_hub/internal/oracle"
	"mining_hub/internal/repository"
	"mining_hub/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var btc50k = oracle.Fixed{Price: decimal.NewFromInt(50000)}

// A 100k sat card at $50,000/BTC costs exactly $50.
func TestLifecycle_FullCycleConservesBalance(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	user := createUser(t, pool, decimal.NewFromInt(100))
	ct := createCardType(t, pool, 100_000, 6.0, 0, 10)

	lc := service.NewLifecycleService(pool, btc50k)

	card, err := lc.Purchase(ctx, user.ID, ct.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.CardInactive, card.State)
	assert.Equal(t, 1, card.SerialNumber)
	assert.True(t, card.PurchasePriceUSD.Equal(decimal.NewFromInt(50)), "price %s", card.PurchasePriceUSD)

	wallet, staking, pending, _ := buckets(t, pool, user.ID)
	assert.True(t, wallet.Equal(decimal.NewFromInt(50)))
	assert.True(t, staking.IsZero())
	assert.True(t, pending.IsZero())

	_, err = lc.Start(ctx, user.ID, card.ID)
	require.NoError(t, err)
	wallet, staking, pending, _ = buckets(t, pool, user.ID)
	assert.True(t, wallet.Equal(decimal.NewFromInt(50)))
	assert.True(t, staking.Equal(decimal.NewFromInt(50)))
	assert.True(t, pending.IsZero())

	stopped, err := lc.Stop(ctx, user.ID, card.ID)
	require.NoError(t, err)
	require.NotNil(t, stopped.UnlockAt)
	wallet, staking, pending, _ = buckets(t, pool, user.ID)
	assert.True(t, wallet.Equal(decimal.NewFromInt(50)))
	assert.True(t, staking.IsZero())
	assert.True(t, pending.Equal(decimal.NewFromInt(50)))

	// Force the cooldown to be over and let the sweep finish the card.
	_, err = pool.Exec(ctx,
		`UPDATE user_cards SET unlock_at = now() - interval '1 hour' WHERE id = $1`, card.ID)
	require.NoError(t, err)

	unlock := service.NewUnlockService(pool, lc)
	require.NoError(t, unlock.RunOnce(ctx, time.Now().UTC()))

	wallet, staking, pending, _ = buckets(t, pool, user.ID)
	assert.True(t, wallet.Equal(decimal.NewFromInt(100)), "wallet %s", wallet)
	assert.True(t, staking.IsZero())
	assert.True(t, pending.IsZero())

	// A second sweep must not credit the wallet again.
	require.NoError(t, unlock.RunOnce(ctx, time.Now().UTC()))
	wallet, _, _, _ = buckets(t, pool, user.ID)
	assert.True(t, wallet.Equal(decimal.NewFromInt(100)))

	got, err := repository.NewUserCardRepository(pool).GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CardFinished, got.State)
}

func TestLifecycle_PurchaseInsufficientFunds(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	user := createUser(t, pool, decimal.NewFromInt(10))
	ct := createCardType(t, pool, 100_000, 6.0, 0, 10)

	lc := service.NewLifecycleService(pool, btc50k)
	_, err := lc.Purchase(ctx, user.ID, ct.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	wallet, _, _, _ := buckets(t, pool, user.ID)
	assert.True(t, wallet.Equal(decimal.NewFromInt(10)), "failed purchase must not debit")
}

func TestLifecycle_PurchaseRequiresOracle(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	user := createUser(t, pool, decimal.NewFromInt(100))
	ct := createCardType(t, pool, 100_000, 6.0, 0, 10)

	lc := service.NewLifecycleService(pool, oracle.Fixed{Down: true})
	_, err := lc.Purchase(ctx, user.ID, ct.ID, 0)
	assert.ErrorIs(t, err, domain.ErrOracleUnavailable)
}

func TestLifecycle_SerialExclusivityAndSupply(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	a := createUser(t, pool, decimal.NewFromInt(100))
	b := createUser(t, pool, decimal.NewFromInt(100))
	ct := createCardType(t, pool, 100_000, 6.0, 0, 1)

	lc := service.NewLifecycleService(pool, btc50k)

	card, err := lc.Purchase(ctx, a.ID, ct.ID, 1)
	require.NoError(t, err)

	// Same serial and the only remaining slot.
	_, err = lc.Purchase(ctx, b.ID, ct.ID, 1)
	assert.ErrorIs(t, err, domain.ErrAlreadySold)
	_, err = lc.Purchase(ctx, b.ID, ct.ID, 0)
	assert.ErrorIs(t, err, domain.ErrAlreadySold)

	// Sell-back returns the serial to the pool.
	refund, err := lc.SellBack(ctx, a.ID, card.ID)
	require.NoError(t, err)
	assert.True(t, refund.Equal(decimal.NewFromInt(50)))

	got, err := repository.NewCardTypeRepository(pool).GetByID(ctx, ct.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Available)

	_, err = lc.Purchase(ctx, b.ID, ct.ID, 1)
	assert.NoError(t, err)
}

func TestLifecycle_SellBackOnlyWhileInactive(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	user := createUser(t, pool, decimal.NewFromInt(100))
	ct := createCardType(t, pool, 100_000, 6.0, 0, 10)

	lc := service.NewLifecycleService(pool, btc50k)
	card, err := lc.Purchase(ctx, user.ID, ct.ID, 0)
	require.NoError(t, err)
	_, err = lc.Start(ctx, user.ID, card.ID)
	require.NoError(t, err)

	_, err = lc.SellBack(ctx, user.ID, card.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestLifecycle_StartTwiceFails(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	user := createUser(t, pool, decimal.NewFromInt(100))
	ct := createCardType(t, pool, 100_000, 6.0, 0, 10)

	lc := service.NewLifecycleService(pool, btc50k)
	card, err := lc.Purchase(ctx, user.ID, ct.ID, 0)
	require.NoError(t, err)

	_, err = lc.Start(ctx, user.ID, card.ID)
	require.NoError(t, err)
	_, err = lc.Start(ctx, user.ID, card.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	// staking must not be double-credited
	_, staking, _, _ := buckets(t, pool, user.ID)
	assert.True(t, staking.Equal(decimal.NewFromInt(50)))
}

func TestLifecycle_ForeignCardIsInvisible(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	owner := createUser(t, pool, decimal.NewFromInt(100))
	stranger := createUser(t, pool, decimal.NewFromInt(100))
	ct := createCardType(t, pool, 100_000, 6.0, 0, 10)

	lc := service.NewLifecycleService(pool, btc50k)
	card, err := lc.Purchase(ctx, owner.ID, ct.ID, 0)
	require.NoError(t, err)

	_, err = lc.Start(ctx, stranger.ID, card.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = lc.SellBack(ctx, stranger.ID, card.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
