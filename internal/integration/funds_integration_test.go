package integration

import (
	"context"
	"testing"

	"mining_hub/internal/domain"
	"mining_hub/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunds_DepositCreditedOnlyOnApproval(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	user := createUser(t, pool, decimal.Zero)
	funds := service.NewFundsService(pool)

	dep, err := funds.RequestDeposit(ctx, user.ID, decimal.NewFromInt(25))
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, dep.Status)

	wallet, _, _, _ := buckets(t, pool, user.ID)
	assert.True(t, wallet.IsZero(), "pending deposit must not credit")

	require.NoError(t, funds.DecideDeposit(ctx, dep.ID, true, "ok"))
	wallet, _, _, _ = buckets(t, pool, user.ID)
	assert.True(t, wallet.Equal(decimal.NewFromInt(25)))

	// Deciding twice must not double-credit.
	err = funds.DecideDeposit(ctx, dep.ID, true, "again")
	assert.ErrorIs(t, err, domain.ErrRequestDecided)
	wallet, _, _, _ = buckets(t, pool, user.ID)
	assert.True(t, wallet.Equal(decimal.NewFromInt(25)))
}

func TestFunds_RejectedDepositNeverCredits(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	user := createUser(t, pool, decimal.Zero)
	funds := service.NewFundsService(pool)

	dep, err := funds.RequestDeposit(ctx, user.ID, decimal.NewFromInt(40))
	require.NoError(t, err)
	require.NoError(t, funds.DecideDeposit(ctx, dep.ID, false, "no proof"))

	wallet, _, _, _ := buckets(t, pool, user.ID)
	assert.True(t, wallet.IsZero())
}

func TestFunds_WithdrawalDebitsUpFrontAndRefundsOnReject(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	user := createUser(t, pool, decimal.NewFromInt(100))
	funds := service.NewFundsService(pool)

	wd, err := funds.RequestWithdrawal(ctx, user.ID, decimal.NewFromInt(30), "bc1qexample")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, wd.Status)

	wallet, _, _, _ := buckets(t, pool, user.ID)
	assert.True(t, wallet.Equal(decimal.NewFromInt(70)), "withdrawal debits immediately")

	require.NoError(t, funds.DecideWithdrawal(ctx, wd.ID, false, "wrong address"))
	wallet, _, _, _ = buckets(t, pool, user.ID)
	assert.True(t, wallet.Equal(decimal.NewFromInt(100)), "rejection refunds")
}

func TestFunds_WithdrawalApprovalKeepsDebit(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	user := createUser(t, pool, decimal.NewFromInt(100))
	funds := service.NewFundsService(pool)

	wd, err := funds.RequestWithdrawal(ctx, user.ID, decimal.NewFromInt(30), "bc1qexample")
	require.NoError(t, err)
	require.NoError(t, funds.DecideWithdrawal(ctx, wd.ID, true, "paid"))

	wallet, _, _, _ := buckets(t, pool, user.ID)
	assert.True(t, wallet.Equal(decimal.NewFromInt(70)))
}

func TestFunds_WithdrawalBeyondBalanceFails(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	user := createUser(t, pool, decimal.NewFromInt(10))
	funds := service.NewFundsService(pool)

	_, err := funds.RequestWithdrawal(ctx, user.ID, decimal.NewFromInt(50), "bc1qexample")
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	wallet, _, _, _ := buckets(t, pool, user.ID)
	assert.True(t, wallet.Equal(decimal.NewFromInt(10)))
}
