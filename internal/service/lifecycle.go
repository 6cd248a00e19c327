package service

import (
	"context"
	"errors"
	"time"

	"mining_hub/internal/domain"
	"mining_hub/internal/logger"
	"mining_hub/internal/mining"
	"mining_hub/internal/oracle"
	"mining_hub/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LifecycleService drives cards through Inactive -> Active -> Cooling ->
// Finished and moves money between the user's balance buckets. Every
// operation is one transaction; row locks are always taken in the order
// user_card -> card_type -> user so concurrent sweeps and user requests
// serialize instead of deadlocking.
type LifecycleService struct {
	db          *pgxpool.Pool
	oracle      oracle.Oracle
	historyRepo *repository.CardHistoryRepository
}

func NewLifecycleService(db *pgxpool.Pool, orc oracle.Oracle) *LifecycleService {
	return &LifecycleService{
		db:          db,
		oracle:      orc,
		historyRepo: repository.NewCardHistoryRepository(db),
	}
}

// Purchase debits the wallet, decrements the type's supply and creates
// an Inactive card. serial <= 0 picks the lowest unsold number.
// Fails with ErrOracleUnavailable rather than pricing at a stale rate.
func (s *LifecycleService) Purchase(ctx context.Context, userID, cardTypeID int64, serial int) (*domain.UserCard, error) {
	rate, ok := s.oracle.Rate()
	if !ok {
		return nil, domain.ErrOracleUnavailable
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		nominalSats int64
		maxSupply   int
	)
	err = tx.QueryRow(ctx,
		`SELECT nominal_sats, max_supply FROM card_types
		 WHERE id = $1 AND is_active FOR UPDATE`,
		cardTypeID).Scan(&nominalSats, &maxSupply)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	sold, err := soldSerialsTx(ctx, tx, cardTypeID)
	if err != nil {
		return nil, err
	}
	if serial <= 0 {
		serial = firstFreeSerial(sold, maxSupply)
	}
	if serial < 1 || serial > maxSupply || sold[serial] {
		return nil, domain.ErrAlreadySold
	}

	cost := mining.CardPriceUSD(nominalSats, rate)

	var wallet decimal.Decimal
	err = tx.QueryRow(ctx,
		`SELECT wallet_usd FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&wallet)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if wallet.LessThan(cost) {
		return nil, domain.ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET wallet_usd = wallet_usd - $2 WHERE id = $1`, userID, cost); err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE card_types SET available = available - 1 WHERE id = $1 AND available > 0`,
		cardTypeID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrAlreadySold
	}

	card := &domain.UserCard{
		UserID:            userID,
		CardTypeID:        cardTypeID,
		SerialNumber:      serial,
		State:             domain.CardInactive,
		NominalSats:       nominalSats,
		PurchasePriceUSD:  cost,
		CurrentProfitUSD:  decimal.Zero,
		CurrentProfitSats: decimal.Zero,
		UnconvertedSats:   decimal.Zero,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO user_cards (user_id, card_type_id, serial_number, state, nominal_sats, purchase_price_usd)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, last_accrual_at, created_at`,
		card.UserID, card.CardTypeID, card.SerialNumber, card.State, card.NominalSats, card.PurchasePriceUSD,
	).Scan(&card.ID, &card.LastAccrualAt, &card.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadySold
		}
		return nil, err
	}

	err = s.historyRepo.AppendTx(ctx, tx, &domain.CardHistory{
		CardTypeID:   cardTypeID,
		SerialNumber: serial,
		UserID:       userID,
		Event:        domain.EventPurchase,
		ProfitUSD:    decimal.Zero,
		PriceUSD:     cost,
		EndedAt:      time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if err := updateAccountStatusTx(ctx, tx, userID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Info("card purchased",
		"user_id", userID, "card_type_id", cardTypeID, "serial", serial, "cost_usd", cost.String())
	return card, nil
}

// Start switches an Inactive card to Active and books the purchase
// price into the staking bucket. Starting a card twice fails with
// ErrInvalidState instead of double-crediting staking.
func (s *LifecycleService) Start(ctx context.Context, userID, cardID int64) (*domain.UserCard, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	card, err := lockCardTx(ctx, tx, cardID, userID)
	if err != nil {
		return nil, err
	}
	if card.State != domain.CardInactive {
		return nil, domain.ErrInvalidState
	}

	now := time.Now().UTC()
	_, err = tx.Exec(ctx,
		`UPDATE user_cards
		 SET state = $2, activated_at = $3, last_accrual_at = $3
		 WHERE id = $1`,
		cardID, domain.CardActive, now)
	if err != nil {
		return nil, err
	}

	// Capital was debited at purchase; staking is a bookkeeping view of
	// capital currently at work, not a second debit.
	_, err = tx.Exec(ctx,
		`UPDATE users SET staking_usd = staking_usd + $2 WHERE id = $1`,
		userID, card.PurchasePriceUSD)
	if err != nil {
		return nil, err
	}

	if err := updateAccountStatusTx(ctx, tx, userID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	card.State = domain.CardActive
	card.ActivatedAt = &now
	card.LastAccrualAt = now
	return card, nil
}

// Stop closes the mining session: realized profit is captured and
// zeroed on the card, the card enters Cooling until the first day of
// the next month, and purchase price plus profit moves from staking
// into the pending-withdrawal bucket.
func (s *LifecycleService) Stop(ctx context.Context, userID, cardID int64) (*domain.UserCard, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	card, err := lockCardTx(ctx, tx, cardID, userID)
	if err != nil {
		return nil, err
	}
	if card.State != domain.CardActive {
		return nil, domain.ErrInvalidState
	}

	profit := card.CurrentProfitUSD

	// A backlog of sats accrued while the oracle was down has not been
	// priced yet; convert it now so the captured profit is complete.
	if card.UnconvertedSats.IsPositive() {
		rate, ok := s.oracle.Rate()
		if !ok {
			return nil, domain.ErrOracleUnavailable
		}
		backlog := mining.SatsToUSD(card.UnconvertedSats, rate)
		profit = profit.Add(backlog)
		if _, err := tx.Exec(ctx,
			`UPDATE users SET total_profit_usd = total_profit_usd + $2 WHERE id = $1`,
			userID, backlog); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	unlockAt := mining.NextUnlockAt(now)

	_, err = tx.Exec(ctx,
		`UPDATE user_cards
		 SET state = $2, cooling_started_at = $3, unlock_at = $4,
		     current_profit_usd = 0, current_profit_sats = 0, unconverted_sats = 0,
		     activated_at = NULL
		 WHERE id = $1`,
		cardID, domain.CardCooling, now, unlockAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE users
		 SET staking_usd = GREATEST(staking_usd - $2, 0),
		     pending_withdrawal_usd = pending_withdrawal_usd + $2 + $3
		 WHERE id = $1`,
		userID, card.PurchasePriceUSD, profit)
	if err != nil {
		return nil, err
	}

	sessionStart := card.LastAccrualAt
	if card.ActivatedAt != nil {
		sessionStart = *card.ActivatedAt
	}
	err = s.historyRepo.AppendTx(ctx, tx, &domain.CardHistory{
		CardTypeID:   card.CardTypeID,
		SerialNumber: card.SerialNumber,
		UserID:       userID,
		Event:        domain.EventMiningSession,
		ProfitUSD:    profit,
		PriceUSD:     decimal.Zero,
		StartedAt:    &sessionStart,
		EndedAt:      now,
		DurationDays: mining.SessionDays(sessionStart, now),
	})
	if err != nil {
		return nil, err
	}

	if err := updateAccountStatusTx(ctx, tx, userID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Info("card stopped",
		"user_id", userID, "card_id", cardID, "profit_usd", profit.String(), "unlock_at", unlockAt)

	card.State = domain.CardCooling
	card.CoolingStartedAt = &now
	card.UnlockAt = &unlockAt
	card.CurrentProfitUSD = decimal.Zero
	card.CurrentProfitSats = decimal.Zero
	card.UnconvertedSats = decimal.Zero
	card.ActivatedAt = nil
	return card, nil
}

// Unlock finishes one Cooling card whose unlock time has passed,
// returning the purchase price from pending withdrawal to the wallet.
// The state transition itself is the one-shot guard: once Finished the
// card can never be processed again, so running the sweep twice credits
// the wallet exactly once.
func (s *LifecycleService) Unlock(ctx context.Context, cardID int64, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	card, err := lockCardAnyOwnerTx(ctx, tx, cardID)
	if err != nil {
		return err
	}
	if card.State != domain.CardCooling || card.UnlockAt == nil || card.UnlockAt.After(now) {
		return domain.ErrInvalidState
	}

	if _, err := tx.Exec(ctx,
		`UPDATE user_cards SET state = $2 WHERE id = $1`,
		cardID, domain.CardFinished); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE users
		 SET pending_withdrawal_usd = GREATEST(pending_withdrawal_usd - $2, 0),
		     wallet_usd = wallet_usd + $2
		 WHERE id = $1`,
		card.UserID, card.PurchasePriceUSD)
	if err != nil {
		return err
	}

	if err := updateAccountStatusTx(ctx, tx, card.UserID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SellBack refunds an Inactive card at its purchase price, returns the
// serial to the pool and removes the card.
func (s *LifecycleService) SellBack(ctx context.Context, userID, cardID int64) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return decimal.Zero, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	card, err := lockCardTx(ctx, tx, cardID, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if card.State != domain.CardInactive {
		return decimal.Zero, domain.ErrInvalidState
	}

	refund := card.PurchasePriceUSD

	if _, err := tx.Exec(ctx,
		`UPDATE card_types SET available = available + 1 WHERE id = $1`,
		card.CardTypeID); err != nil {
		return decimal.Zero, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET wallet_usd = wallet_usd + $2 WHERE id = $1`,
		userID, refund); err != nil {
		return decimal.Zero, err
	}

	err = s.historyRepo.AppendTx(ctx, tx, &domain.CardHistory{
		CardTypeID:   card.CardTypeID,
		SerialNumber: card.SerialNumber,
		UserID:       userID,
		Event:        domain.EventSoldBack,
		ProfitUSD:    decimal.Zero,
		PriceUSD:     refund,
		EndedAt:      time.Now().UTC(),
	})
	if err != nil {
		return decimal.Zero, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM user_cards WHERE id = $1`, cardID); err != nil {
		return decimal.Zero, err
	}

	if err := updateAccountStatusTx(ctx, tx, userID); err != nil {
		return decimal.Zero, err
	}
	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}

	logger.Info("card sold back",
		"user_id", userID, "card_id", cardID, "refund_usd", refund.String())
	return refund, nil
}

const lockCardSQL = `
	SELECT id, user_id, card_type_id, serial_number, state,
		nominal_sats, purchase_price_usd, current_profit_usd, current_profit_sats,
		unconverted_sats, activated_at, cooling_started_at, unlock_at, last_accrual_at, created_at
	FROM user_cards`

func lockCardTx(ctx context.Context, tx pgx.Tx, cardID, userID int64) (*domain.UserCard, error) {
	return scanLockedCard(tx.QueryRow(ctx,
		lockCardSQL+` WHERE id = $1 AND user_id = $2 FOR UPDATE`, cardID, userID))
}

func lockCardAnyOwnerTx(ctx context.Context, tx pgx.Tx, cardID int64) (*domain.UserCard, error) {
	return scanLockedCard(tx.QueryRow(ctx,
		lockCardSQL+` WHERE id = $1 FOR UPDATE`, cardID))
}

func scanLockedCard(row pgx.Row) (*domain.UserCard, error) {
	var c domain.UserCard
	err := row.Scan(
		&c.ID, &c.UserID, &c.CardTypeID, &c.SerialNumber, &c.State,
		&c.NominalSats, &c.PurchasePriceUSD, &c.CurrentProfitUSD, &c.CurrentProfitSats,
		&c.UnconvertedSats, &c.ActivatedAt, &c.CoolingStartedAt, &c.UnlockAt, &c.LastAccrualAt, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func soldSerialsTx(ctx context.Context, tx pgx.Tx, cardTypeID int64) (map[int]bool, error) {
	rows, err := tx.Query(ctx,
		`SELECT serial_number FROM user_cards WHERE card_type_id = $1`, cardTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sold := make(map[int]bool)
	for rows.Next() {
		var serial int
		if err := rows.Scan(&serial); err != nil {
			return nil, err
		}
		sold[serial] = true
	}
	return sold, rows.Err()
}

func firstFreeSerial(sold map[int]bool, maxSupply int) int {
	for i := 1; i <= maxSupply; i++ {
		if !sold[i] {
			return i
		}
	}
	return 0
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
