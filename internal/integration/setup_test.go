package integration

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"mining_hub/internal/domain"
	"mining_hub/internal/migrations"
	"mining_hub/internal/repository"
	"mining_hub/internal/service"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	service.InitJWT("integration-test-secret")
	os.Exit(m.Run())
}

// setupDB connects to the database from DATABASE_URL, applies the
// embedded migrations and truncates all tables. Tests are skipped when
// no database is configured.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	sqlDB, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("pgx"))
	require.NoError(t, goose.Up(sqlDB, "."))
	require.NoError(t, sqlDB.Close())

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(context.Background(),
		`TRUNCATE users, card_types, user_cards, card_history, daily_earnings,
		 deposit_requests, withdrawal_requests RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return pool
}

func createUser(t *testing.T, pool *pgxpool.Pool, walletUSD decimal.Decimal) *domain.User {
	t.Helper()

	repo := repository.NewUserRepository(pool)

	// tg ids must be unique; derive the next one from the row count.
	var n int64
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT count(*) FROM users`).Scan(&n))

	u := domain.NewUser(100000+n, "tester", repository.GenerateReferralCode())
	require.NoError(t, repo.Create(context.Background(), u))

	if walletUSD.IsPositive() {
		_, err := pool.Exec(context.Background(),
			`UPDATE users SET wallet_usd = $2 WHERE id = $1`, u.ID, walletUSD)
		require.NoError(t, err)
		u.WalletUSD = walletUSD
	}
	return u
}

func createCardType(t *testing.T, pool *pgxpool.Pool, nominalSats int64, clientAPY, referralAPY float64, maxSupply int) *domain.CardType {
	t.Helper()

	repo := repository.NewCardTypeRepository(pool)
	ct := &domain.CardType{
		Name:        "Test Tier",
		NominalSats: nominalSats,
		ClientAPY:   clientAPY,
		ReferralAPY: referralAPY,
		MaxSupply:   maxSupply,
		Available:   maxSupply,
		IsActive:    true,
	}
	require.NoError(t, repo.Create(context.Background(), ct))
	return ct
}

// buckets reads the user's USD buckets for conservation assertions.
func buckets(t *testing.T, pool *pgxpool.Pool, userID int64) (wallet, staking, pending, profit decimal.Decimal) {
	t.Helper()
	err := pool.QueryRow(context.Background(),
		`SELECT wallet_usd, staking_usd, pending_withdrawal_usd, total_profit_usd
		 FROM users WHERE id = $1`, userID).Scan(&wallet, &staking, &pending, &profit)
	require.NoError(t, err)
	return
}
