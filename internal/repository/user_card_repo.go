package repository

import (
	"context"
	"errors"
	"time"

	"mining_hub/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userCardColumns = `id, user_id, card_type_id, serial_number, state,
	nominal_sats, purchase_price_usd, current_profit_usd, current_profit_sats,
	unconverted_sats, activated_at, cooling_started_at, unlock_at, last_accrual_at, created_at`

type UserCardRepository struct {
	db *pgxpool.Pool
}

func NewUserCardRepository(db *pgxpool.Pool) *UserCardRepository {
	return &UserCardRepository{db: db}
}

func scanUserCard(row pgx.Row) (*domain.UserCard, error) {
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

func collectUserCards(rows pgx.Rows) ([]domain.UserCard, error) {
	defer rows.Close()
	var cards []domain.UserCard
	for rows.Next() {
		c, err := scanUserCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

func (r *UserCardRepository) GetByID(ctx context.Context, id int64) (*domain.UserCard, error) {
	return scanUserCard(r.db.QueryRow(ctx,
		`SELECT `+userCardColumns+` FROM user_cards WHERE id = $1`, id))
}

func (r *UserCardRepository) ListByUser(ctx context.Context, userID int64) ([]domain.UserCard, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userCardColumns+` FROM user_cards WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	return collectUserCards(rows)
}

// ListActiveIDs returns the ids of every Active card. The accrual sweep
// loads ids first and then processes cards one transaction at a time so
// a failure on one card cannot poison the batch.
func (r *UserCardRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id FROM user_cards WHERE state = $1 ORDER BY id`, domain.CardActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListUnlockableIDs returns Cooling cards whose unlock time has passed.
func (r *UserCardRepository) ListUnlockableIDs(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id FROM user_cards WHERE state = $1 AND unlock_at <= $2 ORDER BY id`,
		domain.CardCooling, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ActivePayoutRow is one Active card joined with its owner's upline and
// the type's referral rate, the unit of work for the referral sweep.
type ActivePayoutRow struct {
	CardID      int64
	NominalSats int64
	ReferralAPY float64
	UplineID    int64
}

// ListActiveWithUpline returns Active cards whose owner has an upline
// and whose type carries a referral rate.
func (r *UserCardRepository) ListActiveWithUpline(ctx context.Context) ([]ActivePayoutRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.nominal_sats, ct.referral_apy, u.upline_id
		FROM user_cards c
		JOIN users u ON u.id = c.user_id
		JOIN card_types ct ON ct.id = c.card_type_id
		WHERE c.state = $1 AND u.upline_id IS NOT NULL AND ct.referral_apy > 0
		ORDER BY c.id`, domain.CardActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActivePayoutRow
	for rows.Next() {
		var row ActivePayoutRow
		if err := rows.Scan(&row.CardID, &row.NominalSats, &row.ReferralAPY, &row.UplineID); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// FilterActiveOwners returns the subset of userIDs that own at least
// one Active card, in a single query.
func (r *UserCardRepository) FilterActiveOwners(ctx context.Context, userIDs []int64) (map[int64]bool, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT user_id FROM user_cards WHERE state = $1 AND user_id = ANY($2)`,
		domain.CardActive, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	active := make(map[int64]bool, len(userIDs))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		active[id] = true
	}
	return active, rows.Err()
}

// SoldSerials returns the serial numbers already issued for a type.
func (r *UserCardRepository) SoldSerials(ctx context.Context, cardTypeID int64) (map[int]bool, error) {
	rows, err := r.db.Query(ctx,
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

// CountByUser returns (active, total) card counts for the classifier.
func (r *UserCardRepository) CountByUser(ctx context.Context, userID int64) (active int, total int, err error) {
	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE state = $2), COUNT(*)
		 FROM user_cards WHERE user_id = $1`,
		userID, domain.CardActive).Scan(&active, &total)
	return active, total, err
}
