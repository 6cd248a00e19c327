package repository

import (
	"context"

	"mining_hub/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CardHistoryRepository appends audit events. There is deliberately no
// update or delete here.
type CardHistoryRepository struct {
	db *pgxpool.Pool
}

func NewCardHistoryRepository(db *pgxpool.Pool) *CardHistoryRepository {
	return &CardHistoryRepository{db: db}
}

const insertHistorySQL = `
	INSERT INTO card_history (card_type_id, serial_number, user_id, event,
		profit_usd, price_usd, started_at, ended_at, duration_days)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, created_at`

func (r *CardHistoryRepository) Append(ctx context.Context, h *domain.CardHistory) error {
	return r.db.QueryRow(ctx, insertHistorySQL,
		h.CardTypeID, h.SerialNumber, h.UserID, h.Event,
		h.ProfitUSD, h.PriceUSD, h.StartedAt, h.EndedAt, h.DurationDays,
	).Scan(&h.ID, &h.CreatedAt)
}

// AppendTx is the same insert inside a caller-owned transaction, used
// by lifecycle operations so the event lands atomically with the
// balance mutation.
func (r *CardHistoryRepository) AppendTx(ctx context.Context, tx pgx.Tx, h *domain.CardHistory) error {
	return tx.QueryRow(ctx, insertHistorySQL,
		h.CardTypeID, h.SerialNumber, h.UserID, h.Event,
		h.ProfitUSD, h.PriceUSD, h.StartedAt, h.EndedAt, h.DurationDays,
	).Scan(&h.ID, &h.CreatedAt)
}

// ListBySerial returns the audit trail of one numbered card, newest
// first.
func (r *CardHistoryRepository) ListBySerial(ctx context.Context, cardTypeID int64, serial int) ([]domain.CardHistory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, card_type_id, serial_number, user_id, event,
			profit_usd, price_usd, started_at, ended_at, duration_days, created_at
		FROM card_history
		WHERE card_type_id = $1 AND serial_number = $2
		ORDER BY created_at DESC`,
		cardTypeID, serial)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.CardHistory
	for rows.Next() {
		var h domain.CardHistory
		if err := rows.Scan(
			&h.ID, &h.CardTypeID, &h.SerialNumber, &h.UserID, &h.Event,
			&h.ProfitUSD, &h.PriceUSD, &h.StartedAt, &h.EndedAt, &h.DurationDays, &h.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, h)
	}
	return events, rows.Err()
}
