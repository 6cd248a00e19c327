package integration

import (
	"context"
	"testing"

	"mining_hub/internal/repository"
	"mining_hub/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func satsCounters(t *testing.T, pool *pgxpool.Pool, userID int64) (wallet, referral int64) {
	t.Helper()
	err := pool.QueryRow(context.Background(),
		`SELECT wallet_sats, referral_sats FROM users WHERE id = $1`, userID).Scan(&wallet, &referral)
	require.NoError(t, err)
	return
}

// A 1,000,000 sat card at 3% referral APY pays floor(30000/365) = 82
// whole sats per day.
func TestReferral_PayoutRequiresActiveUplineCard(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	upline := createUser(t, pool, decimal.NewFromInt(2000))
	downline := createUser(t, pool, decimal.NewFromInt(2000))

	users := repository.NewUserRepository(pool)
	require.NoError(t, users.SetUpline(ctx, downline.ID, upline.ID))

	ct := createCardType(t, pool, 1_000_000, 6.0, 3.0, 10)
	lc := service.NewLifecycleService(pool, btc50k)

	card, err := lc.Purchase(ctx, downline.ID, ct.ID, 0)
	require.NoError(t, err)
	_, err = lc.Start(ctx, downline.ID, card.ID)
	require.NoError(t, err)

	ref := service.NewReferralService(pool)

	// Upline owns no active card yet: no reward.
	require.NoError(t, ref.RunOnce(ctx))
	wallet, referral := satsCounters(t, pool, upline.ID)
	assert.Zero(t, wallet)
	assert.Zero(t, referral)

	// Once the upline mines with a card of their own the reward flows.
	own, err := lc.Purchase(ctx, upline.ID, ct.ID, 0)
	require.NoError(t, err)
	_, err = lc.Start(ctx, upline.ID, own.ID)
	require.NoError(t, err)

	require.NoError(t, ref.RunOnce(ctx))
	wallet, referral = satsCounters(t, pool, upline.ID)
	assert.Equal(t, int64(82), wallet)
	assert.Equal(t, int64(82), referral)

	// The downline earns nothing from their own card.
	wallet, referral = satsCounters(t, pool, downline.ID)
	assert.Zero(t, wallet)
	assert.Zero(t, referral)
}

func TestReferral_NoRewardAfterDownlineStops(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	upline := createUser(t, pool, decimal.NewFromInt(2000))
	downline := createUser(t, pool, decimal.NewFromInt(2000))

	users := repository.NewUserRepository(pool)
	require.NoError(t, users.SetUpline(ctx, downline.ID, upline.ID))

	ct := createCardType(t, pool, 1_000_000, 6.0, 3.0, 10)
	lc := service.NewLifecycleService(pool, btc50k)

	// Both mine.
	dCard, err := lc.Purchase(ctx, downline.ID, ct.ID, 0)
	require.NoError(t, err)
	_, err = lc.Start(ctx, downline.ID, dCard.ID)
	require.NoError(t, err)
	uCard, err := lc.Purchase(ctx, upline.ID, ct.ID, 0)
	require.NoError(t, err)
	_, err = lc.Start(ctx, upline.ID, uCard.ID)
	require.NoError(t, err)

	// The downline stops; their card no longer generates rewards, even
	// though the upline still mines (their own card pays no one, the
	// upline has no upline).
	_, err = lc.Stop(ctx, downline.ID, dCard.ID)
	require.NoError(t, err)

	ref := service.NewReferralService(pool)
	require.NoError(t, ref.RunOnce(ctx))

	wallet, referral := satsCounters(t, pool, upline.ID)
	assert.Zero(t, wallet)
	assert.Zero(t, referral)
}

func TestReferral_UplineBindIsPermanent(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	a := createUser(t, pool, decimal.Zero)
	b := createUser(t, pool, decimal.Zero)
	c := createUser(t, pool, decimal.Zero)

	users := repository.NewUserRepository(pool)
	require.NoError(t, users.SetUpline(ctx, c.ID, a.ID))
	assert.Error(t, users.SetUpline(ctx, c.ID, b.ID))
	assert.Error(t, users.SetUpline(ctx, a.ID, a.ID), "self-referral")
}
