package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

// DepositRequest is a user's claim of an external top-up, credited to
// the wallet only after admin approval.
type DepositRequest struct {
	ID        int64           `db:"id" json:"id"`
	Ref       uuid.UUID       `db:"ref" json:"ref"`
	UserID    int64           `db:"user_id" json:"user_id"`
	AmountUSD decimal.Decimal `db:"amount_usd" json:"amount_usd"`
	Status    RequestStatus   `db:"status" json:"status"`
	AdminNote string          `db:"admin_note" json:"admin_note,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	DecidedAt *time.Time      `db:"decided_at" json:"decided_at,omitempty"`
}

// WithdrawalRequest debits the wallet when filed; a rejection refunds it.
type WithdrawalRequest struct {
	ID        int64           `db:"id" json:"id"`
	Ref       uuid.UUID       `db:"ref" json:"ref"`
	UserID    int64           `db:"user_id" json:"user_id"`
	AmountUSD decimal.Decimal `db:"amount_usd" json:"amount_usd"`
	Address   string          `db:"address" json:"address"`
	Status    RequestStatus   `db:"status" json:"status"`
	AdminNote string          `db:"admin_note" json:"admin_note,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	DecidedAt *time.Time      `db:"decided_at" json:"decided_at,omitempty"`
}
