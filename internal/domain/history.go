package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type HistoryEvent string

const (
	EventPurchase      HistoryEvent = "PURCHASE"
	EventSoldBack      HistoryEvent = "SOLD_BACK"
	EventMiningSession HistoryEvent = "MINING_SESSION"
)

// CardHistory is an append-only audit record keyed by card type and
// serial number. Rows are never updated or deleted.
type CardHistory struct {
	ID           int64           `db:"id" json:"id"`
	CardTypeID   int64           `db:"card_type_id" json:"card_type_id"`
	SerialNumber int             `db:"serial_number" json:"serial_number"`
	UserID       int64           `db:"user_id" json:"user_id"`
	Event        HistoryEvent    `db:"event" json:"event"`
	ProfitUSD    decimal.Decimal `db:"profit_usd" json:"profit_usd"`
	PriceUSD     decimal.Decimal `db:"price_usd" json:"price_usd"`
	StartedAt    *time.Time      `db:"started_at" json:"started_at,omitempty"`
	EndedAt      time.Time       `db:"ended_at" json:"ended_at"`
	DurationDays int             `db:"duration_days" json:"duration_days"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
