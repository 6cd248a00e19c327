package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DailyEarningRepository maintains the per-user per-day mined-sats log
// behind the "earned today" statistic.
type DailyEarningRepository struct {
	db *pgxpool.Pool
}

func NewDailyEarningRepository(db *pgxpool.Pool) *DailyEarningRepository {
	return &DailyEarningRepository{db: db}
}

// AddTx upserts today's row, adding sats to the running total, inside a
// caller-owned transaction.
func (r *DailyEarningRepository) AddTx(ctx context.Context, tx pgx.Tx, userID int64, day time.Time, sats decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO daily_earnings (user_id, day, mining_sats)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, day) DO UPDATE
		SET mining_sats = daily_earnings.mining_sats + EXCLUDED.mining_sats`,
		userID, day.UTC().Format("2006-01-02"), sats)
	return err
}

// Today returns the sats mined by the user on the given UTC day, zero
// when there is no row yet.
func (r *DailyEarningRepository) Today(ctx context.Context, userID int64, day time.Time) (decimal.Decimal, error) {
	var sats decimal.Decimal
	err := r.db.QueryRow(ctx,
		`SELECT mining_sats FROM daily_earnings WHERE user_id = $1 AND day = $2`,
		userID, day.UTC().Format("2006-01-02")).Scan(&sats)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return sats, nil
}
