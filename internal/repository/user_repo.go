package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"

	"mining_hub/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, tg_id, username, role, COALESCE(referral_code, ''), upline_id,
	account_status, wallet_usd, staking_usd, pending_withdrawal_usd, total_profit_usd,
	wallet_sats, referral_sats, is_banned, created_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// GenerateReferralCode returns a random 12-hex-char code.
func GenerateReferralCode() string {
	bytes := make([]byte, 6)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.TgID, &u.Username, &u.Role, &u.ReferralCode, &u.UplineID,
		&u.Status, &u.WalletUSD, &u.StakingUSD, &u.PendingWithdrawalUSD, &u.TotalProfitUSD,
		&u.WalletSats, &u.ReferralSats, &u.IsBanned, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE tg_id = $1`, tgID))
}

func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code))
}

// Create inserts a new user with zeroed balances. The referral code is
// retried on the unique constraint up to a few times.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	var err error
	for i := 0; i < 5; i++ {
		if u.ReferralCode == "" {
			u.ReferralCode = GenerateReferralCode()
		}
		err = r.db.QueryRow(ctx,
			`INSERT INTO users (tg_id, username, role, referral_code, upline_id)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, created_at`,
			u.TgID, u.Username, u.Role, u.ReferralCode, u.UplineID,
		).Scan(&u.ID, &u.CreatedAt)
		if err == nil {
			return nil
		}
		u.ReferralCode = ""
	}
	return err
}

// SetUpline binds the upline once; a second attempt fails.
func (r *UserRepository) SetUpline(ctx context.Context, userID, uplineID int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET upline_id = $1 WHERE id = $2 AND upline_id IS NULL AND id <> $1`,
		uplineID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUplineAlreadySet
	}
	return nil
}

func (r *UserRepository) SetBanned(ctx context.Context, userID int64, banned bool) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET is_banned = $2 WHERE id = $1`, userID, banned)
	return err
}

// CountReferrals returns how many users name this one as upline.
func (r *UserRepository) CountReferrals(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE upline_id = $1`, userID).Scan(&n)
	return n, err
}
