package service

import (
	"context"
	"errors"
	"time"

	"mining_hub/internal/domain"
	"mining_hub/internal/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// FundsService handles simulated-USD deposits and withdrawals, both
// gated on admin approval. A withdrawal debits the wallet when filed so
// the funds cannot be spent while the request is pending; rejection
// refunds them.
type FundsService struct {
	db *pgxpool.Pool
}

func NewFundsService(db *pgxpool.Pool) *FundsService {
	return &FundsService{db: db}
}

func (s *FundsService) RequestDeposit(ctx context.Context, userID int64, amount decimal.Decimal) (*domain.DepositRequest, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInsufficientFunds
	}

	d := &domain.DepositRequest{
		Ref:       uuid.New(),
		UserID:    userID,
		AmountUSD: amount,
		Status:    domain.RequestPending,
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO deposit_requests (ref, user_id, amount_usd)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		d.Ref, d.UserID, d.AmountUSD).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *FundsService) RequestWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, address string) (*domain.WithdrawalRequest, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInsufficientFunds
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var wallet decimal.Decimal
	err = tx.QueryRow(ctx,
		`SELECT wallet_usd FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&wallet)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if wallet.LessThan(amount) {
		return nil, domain.ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET wallet_usd = wallet_usd - $2 WHERE id = $1`, userID, amount); err != nil {
		return nil, err
	}

	w := &domain.WithdrawalRequest{
		Ref:       uuid.New(),
		UserID:    userID,
		AmountUSD: amount,
		Address:   address,
		Status:    domain.RequestPending,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO withdrawal_requests (ref, user_id, amount_usd, address)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		w.Ref, w.UserID, w.AmountUSD, w.Address).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := updateAccountStatusTx(ctx, tx, userID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Info("withdrawal requested",
		"user_id", userID, "amount_usd", amount.String(), "ref", w.Ref)
	return w, nil
}

// DecideDeposit approves or rejects a pending deposit. Approval credits
// the wallet in the same transaction that flips the request status, so
// a request can never be paid twice.
func (s *FundsService) DecideDeposit(ctx context.Context, requestID int64, approve bool, note string) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	status := domain.RequestRejected
	if approve {
		status = domain.RequestApproved
	}

	var (
		userID int64
		amount decimal.Decimal
	)
	err = tx.QueryRow(ctx,
		`UPDATE deposit_requests
		 SET status = $2, admin_note = $3, decided_at = $4
		 WHERE id = $1 AND status = $5
		 RETURNING user_id, amount_usd`,
		requestID, status, note, time.Now().UTC(), domain.RequestPending,
	).Scan(&userID, &amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.decidedOrMissingDeposit(ctx, requestID)
		}
		return err
	}

	if approve {
		if _, err := tx.Exec(ctx,
			`UPDATE users SET wallet_usd = wallet_usd + $2 WHERE id = $1`,
			userID, amount); err != nil {
			return err
		}
		if err := updateAccountStatusTx(ctx, tx, userID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// DecideWithdrawal approves or rejects a pending withdrawal. The wallet
// was debited when the request was filed, so approval only closes the
// request while rejection refunds.
func (s *FundsService) DecideWithdrawal(ctx context.Context, requestID int64, approve bool, note string) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	status := domain.RequestRejected
	if approve {
		status = domain.RequestApproved
	}

	var (
		userID int64
		amount decimal.Decimal
	)
	err = tx.QueryRow(ctx,
		`UPDATE withdrawal_requests
		 SET status = $2, admin_note = $3, decided_at = $4
		 WHERE id = $1 AND status = $5
		 RETURNING user_id, amount_usd`,
		requestID, status, note, time.Now().UTC(), domain.RequestPending,
	).Scan(&userID, &amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.decidedOrMissingWithdrawal(ctx, requestID)
		}
		return err
	}

	if !approve {
		if _, err := tx.Exec(ctx,
			`UPDATE users SET wallet_usd = wallet_usd + $2 WHERE id = $1`,
			userID, amount); err != nil {
			return err
		}
		if err := updateAccountStatusTx(ctx, tx, userID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *FundsService) decidedOrMissingDeposit(ctx context.Context, requestID int64) error {
	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM deposit_requests WHERE id = $1)`, requestID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return domain.ErrRequestDecided
	}
	return domain.ErrNotFound
}

func (s *FundsService) decidedOrMissingWithdrawal(ctx context.Context, requestID int64) error {
	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM withdrawal_requests WHERE id = $1)`, requestID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return domain.ErrRequestDecided
	}
	return domain.ErrNotFound
}
