package integration

import (
	"context"
	"testing"

	"mining_hub/internal/domain"
	"mining_hub/internal/repository"
	"mining_hub/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_FollowsHoldings(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	user := createUser(t, pool, decimal.Zero)
	status := service.NewStatusService(pool)

	require.NoError(t, status.Recompute(ctx, user.ID))
	got, err := repository.NewUserRepository(pool).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNewbie, got.Status)

	// Money in the wallet makes a depositor.
	_, err = pool.Exec(ctx, `UPDATE users SET wallet_usd = 100 WHERE id = $1`, user.ID)
	require.NoError(t, err)
	require.NoError(t, status.Recompute(ctx, user.ID))
	got, err = repository.NewUserRepository(pool).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDepositor, got.Status)

	// Owning a card makes a holder; lifecycle operations recompute on
	// their own, no explicit call needed.
	ct := createCardType(t, pool, 100_000, 6.0, 0, 10)
	lc := service.NewLifecycleService(pool, btc50k)
	card, err := lc.Purchase(ctx, user.ID, ct.ID, 0)
	require.NoError(t, err)
	got, err = repository.NewUserRepository(pool).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHolder, got.Status)

	// An active card makes a miner.
	_, err = lc.Start(ctx, user.ID, card.ID)
	require.NoError(t, err)
	got, err = repository.NewUserRepository(pool).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusMiner, got.Status)

	// Stopping demotes back to holder.
	_, err = lc.Stop(ctx, user.ID, card.ID)
	require.NoError(t, err)
	got, err = repository.NewUserRepository(pool).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHolder, got.Status)
}

func TestAuth_LoginCreatesAndLinksReferral(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	inviter := createUser(t, pool, decimal.Zero)
	auth := service.NewAuthService(pool)

	user, token, err := auth.Login(ctx, 777001, "newcomer", inviter.ReferralCode)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NotNil(t, user.UplineID)
	assert.Equal(t, inviter.ID, *user.UplineID)

	// Second login returns the same account, token still valid.
	again, _, err := auth.Login(ctx, 777001, "newcomer", "")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	parsed, err := service.ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, parsed)
}

func TestAuth_BannedUserCannotLogin(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	auth := service.NewAuthService(pool)
	user, _, err := auth.Login(ctx, 777002, "rogue", "")
	require.NoError(t, err)

	require.NoError(t, repository.NewUserRepository(pool).SetBanned(ctx, user.ID, true))

	_, _, err = auth.Login(ctx, 777002, "rogue", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
