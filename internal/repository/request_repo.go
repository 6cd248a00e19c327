package repository

import (
	"context"
	"errors"

	"mining_hub/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FundRequestRepository reads deposit and withdrawal requests. The
// mutations that move money live in service.FundsService transactions.
type FundRequestRepository struct {
	db *pgxpool.Pool
}

func NewFundRequestRepository(db *pgxpool.Pool) *FundRequestRepository {
	return &FundRequestRepository{db: db}
}

func (r *FundRequestRepository) GetDeposit(ctx context.Context, id int64) (*domain.DepositRequest, error) {
	var d domain.DepositRequest
	err := r.db.QueryRow(ctx, `
		SELECT id, ref, user_id, amount_usd, status, admin_note, created_at, decided_at
		FROM deposit_requests WHERE id = $1`, id).Scan(
		&d.ID, &d.Ref, &d.UserID, &d.AmountUSD, &d.Status, &d.AdminNote, &d.CreatedAt, &d.DecidedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *FundRequestRepository) GetWithdrawal(ctx context.Context, id int64) (*domain.WithdrawalRequest, error) {
	var w domain.WithdrawalRequest
	err := r.db.QueryRow(ctx, `
		SELECT id, ref, user_id, amount_usd, address, status, admin_note, created_at, decided_at
		FROM withdrawal_requests WHERE id = $1`, id).Scan(
		&w.ID, &w.Ref, &w.UserID, &w.AmountUSD, &w.Address, &w.Status, &w.AdminNote, &w.CreatedAt, &w.DecidedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// ListPendingDeposits returns deposits awaiting an admin decision,
// oldest first.
func (r *FundRequestRepository) ListPendingDeposits(ctx context.Context, limit int) ([]domain.DepositRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, ref, user_id, amount_usd, status, admin_note, created_at, decided_at
		FROM deposit_requests WHERE status = $1 ORDER BY created_at LIMIT $2`,
		domain.RequestPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DepositRequest
	for rows.Next() {
		var d domain.DepositRequest
		if err := rows.Scan(&d.ID, &d.Ref, &d.UserID, &d.AmountUSD, &d.Status, &d.AdminNote, &d.CreatedAt, &d.DecidedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *FundRequestRepository) ListPendingWithdrawals(ctx context.Context, limit int) ([]domain.WithdrawalRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, ref, user_id, amount_usd, address, status, admin_note, created_at, decided_at
		FROM withdrawal_requests WHERE status = $1 ORDER BY created_at LIMIT $2`,
		domain.RequestPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WithdrawalRequest
	for rows.Next() {
		var w domain.WithdrawalRequest
		if err := rows.Scan(&w.ID, &w.Ref, &w.UserID, &w.AmountUSD, &w.Address, &w.Status, &w.AdminNote, &w.CreatedAt, &w.DecidedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
