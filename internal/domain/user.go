package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// AccountStatus is a display label derived from the user's holdings.
// It is recomputed after every mutation and never used for authorization.
type AccountStatus string

const (
	StatusNewbie    AccountStatus = "NEWBIE"
	StatusDepositor AccountStatus = "DEPOSITOR"
	StatusHolder    AccountStatus = "HOLDER"
	StatusMiner     AccountStatus = "MINER"
)

type User struct {
	ID           int64         `db:"id" json:"id"`
	TgID         int64         `db:"tg_id" json:"tg_id"`
	Username     string        `db:"username" json:"username"`
	Role         Role          `db:"role" json:"role"`
	ReferralCode string        `db:"referral_code" json:"referral_code"`
	UplineID     *int64        `db:"upline_id" json:"upline_id,omitempty"`
	Status       AccountStatus `db:"account_status" json:"account_status"`

	// USD buckets. wallet + staking + pending_withdrawal is conserved by
	// every lifecycle transition; total_profit only grows.
	WalletUSD            decimal.Decimal `db:"wallet_usd" json:"wallet_usd"`
	StakingUSD           decimal.Decimal `db:"staking_usd" json:"staking_usd"`
	PendingWithdrawalUSD decimal.Decimal `db:"pending_withdrawal_usd" json:"pending_withdrawal_usd"`
	TotalProfitUSD       decimal.Decimal `db:"total_profit_usd" json:"total_profit_usd"`

	// Satoshi reward counters, whole sats only.
	WalletSats   int64 `db:"wallet_sats" json:"wallet_sats"`
	ReferralSats int64 `db:"referral_sats" json:"referral_sats"`

	IsBanned  bool      `db:"is_banned" json:"is_banned"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewUser returns a user with every balance bucket explicitly zeroed.
func NewUser(tgID int64, username, referralCode string) *User {
	return &User{
		TgID:                 tgID,
		Username:             username,
		Role:                 RoleUser,
		ReferralCode:         referralCode,
		Status:               StatusNewbie,
		WalletUSD:            decimal.Zero,
		StakingUSD:           decimal.Zero,
		PendingWithdrawalUSD: decimal.Zero,
		TotalProfitUSD:       decimal.Zero,
	}
}
