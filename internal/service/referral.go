package service

import (
	"context"

	"mining_hub/internal/logger"
	"mining_hub/internal/metrics"
	"mining_hub/internal/mining"
	"mining_hub/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferralService is the daily sweep paying uplines a share of their
// downstream's active-card yield. An upline collects nothing unless it
// has an Active card of its own.
type ReferralService struct {
	db    *pgxpool.Pool
	cards *repository.UserCardRepository
}

func NewReferralService(db *pgxpool.Pool) *ReferralService {
	return &ReferralService{
		db:    db,
		cards: repository.NewUserCardRepository(db),
	}
}

// RunOnce executes one payout pass. The "is this upline active" check
// is batched over the distinct upline set in a single query instead of
// one lookup per card.
func (s *ReferralService) RunOnce(ctx context.Context) error {
	rows, err := s.cards.ListActiveWithUpline(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	seen := make(map[int64]bool)
	var uplines []int64
	for _, row := range rows {
		if !seen[row.UplineID] {
			seen[row.UplineID] = true
			uplines = append(uplines, row.UplineID)
		}
	}

	activeUplines, err := s.cards.FilterActiveOwners(ctx, uplines)
	if err != nil {
		return err
	}

	payouts := 0
	for _, row := range rows {
		if !activeUplines[row.UplineID] {
			continue
		}

		reward := mining.DailyReferralRewardSats(row.NominalSats, row.ReferralAPY)
		if reward <= 0 {
			continue
		}

		// Single-statement credit; atomic per upline row.
		_, err := s.db.Exec(ctx,
			`UPDATE users
			 SET wallet_sats = wallet_sats + $2, referral_sats = referral_sats + $2
			 WHERE id = $1`,
			row.UplineID, reward)
		if err != nil {
			metrics.SweepItems.WithLabelValues("referral", "error").Inc()
			logger.Error("referral payout failed",
				"upline_id", row.UplineID, "card_id", row.CardID, "error", err)
			continue
		}
		metrics.SweepItems.WithLabelValues("referral", "ok").Inc()
		payouts++
	}

	logger.Info("referral payout run finished", "active_cards", len(rows), "payouts", payouts)
	return nil
}
