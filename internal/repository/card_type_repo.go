package repository

import (
	"context"
	"errors"

	"mining_hub/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const cardTypeColumns = `id, name, nominal_sats, client_apy, referral_apy,
	max_supply, available, is_active, created_at`

type CardTypeRepository struct {
	db *pgxpool.Pool
}

func NewCardTypeRepository(db *pgxpool.Pool) *CardTypeRepository {
	return &CardTypeRepository{db: db}
}

func scanCardType(row pgx.Row) (*domain.CardType, error) {
	var ct domain.CardType
	err := row.Scan(
		&ct.ID, &ct.Name, &ct.NominalSats, &ct.ClientAPY, &ct.ReferralAPY,
		&ct.MaxSupply, &ct.Available, &ct.IsActive, &ct.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &ct, nil
}

func (r *CardTypeRepository) GetByID(ctx context.Context, id int64) (*domain.CardType, error) {
	return scanCardType(r.db.QueryRow(ctx,
		`SELECT `+cardTypeColumns+` FROM card_types WHERE id = $1`, id))
}

// ListActive returns collections currently offered in the shop.
func (r *CardTypeRepository) ListActive(ctx context.Context) ([]domain.CardType, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+cardTypeColumns+` FROM card_types WHERE is_active ORDER BY nominal_sats`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []domain.CardType
	for rows.Next() {
		ct, err := scanCardType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, *ct)
	}
	return types, rows.Err()
}

func (r *CardTypeRepository) Create(ctx context.Context, ct *domain.CardType) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO card_types (name, nominal_sats, client_apy, referral_apy, max_supply, available, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		ct.Name, ct.NominalSats, ct.ClientAPY, ct.ReferralAPY, ct.MaxSupply, ct.Available, ct.IsActive,
	).Scan(&ct.ID, &ct.CreatedAt)
}

func (r *CardTypeRepository) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := r.db.Exec(ctx, `UPDATE card_types SET is_active = $2 WHERE id = $1`, id, active)
	return err
}
