package service

import (
	"context"

	"mining_hub/internal/domain"
	"mining_hub/internal/mining"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// updateAccountStatusTx re-derives the coarse account label from the
// user's current holdings inside the caller's transaction. Called by
// every operation that mutates a user's card set or wallet.
func updateAccountStatusTx(ctx context.Context, tx pgx.Tx, userID int64) error {
	var (
		active int
		total  int
		wallet decimal.Decimal
	)
	err := tx.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM user_cards WHERE user_id = $1 AND state = $2),
			(SELECT COUNT(*) FROM user_cards WHERE user_id = $1),
			wallet_usd
		FROM users WHERE id = $1`,
		userID, domain.CardActive).Scan(&active, &total, &wallet)
	if err != nil {
		return err
	}

	status := mining.Classify(active, total, wallet)
	_, err = tx.Exec(ctx,
		`UPDATE users SET account_status = $2 WHERE id = $1 AND account_status <> $2`,
		userID, status)
	return err
}

// StatusService exposes the recomputation outside a transaction, for
// callers that only read state (e.g. backfills).
type StatusService struct {
	db *pgxpool.Pool
}

func NewStatusService(db *pgxpool.Pool) *StatusService {
	return &StatusService{db: db}
}

func (s *StatusService) Recompute(ctx context.Context, userID int64) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := updateAccountStatusTx(ctx, tx, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
