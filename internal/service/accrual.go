package service

import (
	"context"
	"time"

	"mining_hub/internal/domain"
	"mining_hub/internal/logger"
	"mining_hub/internal/metrics"
	"mining_hub/internal/mining"
	"mining_hub/internal/oracle"
	"mining_hub/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Notifier pushes a balance update to a connected client after an
// accrual lands. Implemented by the ws hub; nil disables pushes.
type Notifier interface {
	NotifyProfit(userID int64, profitSats, profitUSD decimal.Decimal)
}

// AccrualService is the minute sweep that credits yield to every
// Active card. Each card is processed in its own transaction: a bad
// card is logged and skipped, the batch always continues.
type AccrualService struct {
	db       *pgxpool.Pool
	oracle   oracle.Oracle
	cards    *repository.UserCardRepository
	earnings *repository.DailyEarningRepository
	notifier Notifier
	period   time.Duration
}

func NewAccrualService(db *pgxpool.Pool, orc oracle.Oracle, notifier Notifier, period time.Duration) *AccrualService {
	if period <= 0 {
		period = time.Minute
	}
	return &AccrualService{
		db:       db,
		oracle:   orc,
		cards:    repository.NewUserCardRepository(db),
		earnings: repository.NewDailyEarningRepository(db),
		notifier: notifier,
		period:   period,
	}
}

// RunOnce performs a single accrual sweep. The oracle is read once up
// front from its cache; when it reports unavailable, yield still
// accrues in sats and the USD conversion is deferred to the next run
// that has a rate.
func (s *AccrualService) RunOnce(ctx context.Context, now time.Time) error {
	ids, err := s.cards.ListActiveIDs(ctx)
	if err != nil {
		return err
	}

	rate, rateOK := s.oracle.Rate()
	if !rateOK {
		logger.Warn("accrual sweep running without oracle rate, deferring USD conversion")
	}

	for _, id := range ids {
		if err := s.accrueCard(ctx, id, now, rate, rateOK); err != nil {
			metrics.SweepItems.WithLabelValues("accrual", "error").Inc()
			logger.Error("accrual failed for card", "card_id", id, "error", err)
			continue
		}
		metrics.SweepItems.WithLabelValues("accrual", "ok").Inc()
	}
	return nil
}

func (s *AccrualService) accrueCard(ctx context.Context, cardID int64, now time.Time, rate decimal.Decimal, rateOK bool) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Re-check state under the row lock: the owner may have stopped the
	// card between the id listing and now.
	card, err := lockCardAnyOwnerTx(ctx, tx, cardID)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil
		}
		return err
	}
	if card.State != domain.CardActive {
		return nil
	}

	// Whole elapsed periods since the last accrual; catch-up is
	// pro-rated when the sweep ran late.
	periods := int64(now.Sub(card.LastAccrualAt) / s.period)
	if periods <= 0 {
		return nil
	}
	newLast := card.LastAccrualAt.Add(time.Duration(periods) * s.period)

	var clientAPY float64
	if err := tx.QueryRow(ctx,
		`SELECT client_apy FROM card_types WHERE id = $1`, card.CardTypeID).Scan(&clientAPY); err != nil {
		return err
	}

	periodsPerYear := int64(time.Hour * 24 * 365 / s.period)
	profitSats := mining.TickYieldSats(card.NominalSats, clientAPY, periodsPerYear, periods)
	if !profitSats.IsPositive() {
		return nil
	}

	backlog := card.UnconvertedSats.Add(profitSats)
	profitUSD := decimal.Zero

	if rateOK {
		// Convert the whole backlog, including sats deferred from runs
		// where the oracle was down.
		profitUSD = mining.SatsToUSD(backlog, rate)
		_, err = tx.Exec(ctx,
			`UPDATE user_cards
			 SET current_profit_sats = current_profit_sats + $2,
			     current_profit_usd = current_profit_usd + $3,
			     unconverted_sats = 0,
			     last_accrual_at = $4
			 WHERE id = $1`,
			cardID, profitSats, profitUSD, newLast)
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE user_cards
			 SET current_profit_sats = current_profit_sats + $2,
			     unconverted_sats = $3,
			     last_accrual_at = $4
			 WHERE id = $1`,
			cardID, profitSats, backlog, newLast)
	}
	if err != nil {
		return err
	}

	if profitUSD.IsPositive() {
		if _, err := tx.Exec(ctx,
			`UPDATE users SET total_profit_usd = total_profit_usd + $2 WHERE id = $1`,
			card.UserID, profitUSD); err != nil {
			return err
		}
	}

	if err := s.earnings.AddTx(ctx, tx, card.UserID, now, profitSats); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	sats, _ := profitSats.Float64()
	metrics.AccruedSats.Add(sats)

	if s.notifier != nil {
		s.notifier.NotifyProfit(card.UserID, profitSats, profitUSD)
	}
	return nil
}

// UnlockService is the sweep companion to LifecycleService.Unlock: it
// finds Cooling cards whose unlock time has passed and finishes each
// one. Idempotent at any cadence because the state transition is the
// completion flag.
type UnlockService struct {
	lifecycle *LifecycleService
	cards     *repository.UserCardRepository
}

func NewUnlockService(db *pgxpool.Pool, lifecycle *LifecycleService) *UnlockService {
	return &UnlockService{
		lifecycle: lifecycle,
		cards:     repository.NewUserCardRepository(db),
	}
}

func (s *UnlockService) RunOnce(ctx context.Context, now time.Time) error {
	ids, err := s.cards.ListUnlockableIDs(ctx, now)
	if err != nil {
		return err
	}

	for _, id := range ids {
		err := s.lifecycle.Unlock(ctx, id, now)
		switch {
		case err == nil:
			metrics.SweepItems.WithLabelValues("unlock", "ok").Inc()
			logger.Info("card unlocked", "card_id", id)
		case err == domain.ErrInvalidState || err == domain.ErrNotFound:
			// Already finished by a concurrent run; nothing to do.
		default:
			metrics.SweepItems.WithLabelValues("unlock", "error").Inc()
			logger.Error("unlock failed for card", "card_id", id, "error", err)
		}
	}
	return nil
}
