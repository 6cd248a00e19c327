package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CardState is the lifecycle state of an owned card.
//
//	Inactive -> Active   (user starts mining)
//	Active   -> Cooling  (user stops; capital enters cooldown)
//	Cooling  -> Finished (unlock sweep, once now >= unlock_at)
//
// Sell-back is only allowed from Inactive and removes the card.
type CardState string

const (
	CardInactive CardState = "Inactive"
	CardActive   CardState = "Active"
	CardCooling  CardState = "Cooling"
	CardFinished CardState = "Finished"
)

// CardType is a collection tier: face value in sats, yield rates and a
// supply cap.
type CardType struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	NominalSats int64     `db:"nominal_sats" json:"nominal_sats"`
	ClientAPY   float64   `db:"client_apy" json:"client_apy"`
	ReferralAPY float64   `db:"referral_apy" json:"referral_apy"`
	MaxSupply   int       `db:"max_supply" json:"max_supply"`
	Available   int       `db:"available" json:"available"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UserCard is an owned, numbered instance of a CardType.
type UserCard struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	CardTypeID   int64     `db:"card_type_id" json:"card_type_id"`
	SerialNumber int       `db:"serial_number" json:"serial_number"`
	State        CardState `db:"state" json:"state"`

	NominalSats      int64           `db:"nominal_sats" json:"nominal_sats"`
	PurchasePriceUSD decimal.Decimal `db:"purchase_price_usd" json:"purchase_price_usd"`

	// Unrealized profit, kept in both currencies. UnconvertedSats is the
	// accrued-sats backlog not yet priced in USD because the oracle was
	// unavailable at accrual time.
	CurrentProfitUSD  decimal.Decimal `db:"current_profit_usd" json:"current_profit_usd"`
	CurrentProfitSats decimal.Decimal `db:"current_profit_sats" json:"current_profit_sats"`
	UnconvertedSats   decimal.Decimal `db:"unconverted_sats" json:"unconverted_sats"`

	ActivatedAt      *time.Time `db:"activated_at" json:"activated_at,omitempty"`
	CoolingStartedAt *time.Time `db:"cooling_started_at" json:"cooling_started_at,omitempty"`
	UnlockAt         *time.Time `db:"unlock_at" json:"unlock_at,omitempty"`
	LastAccrualAt    time.Time  `db:"last_accrual_at" json:"last_accrual_at"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// DailyEarning is the per-user per-day mined-sats log behind the
// "today" statistic.
type DailyEarning struct {
	ID         int64           `db:"id" json:"id"`
	UserID     int64           `db:"user_id" json:"user_id"`
	Day        string          `db:"day" json:"day"` // YYYY-MM-DD, UTC
	MiningSats decimal.Decimal `db:"mining_sats" json:"mining_sats"`
}
