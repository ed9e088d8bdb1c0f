package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeDeposit      TransactionType = "DEPOSIT"
	TypeWithdrawal   TransactionType = "WITHDRAWAL"
	TypeFee          TransactionType = "FEE"
	TypeManualAdjust TransactionType = "MANUAL_ADJUST"
)

type TransactionStatus string

const (
	// Deposit lifecycle.
	StatusPending TransactionStatus = "PENDING"
	StatusPaid    TransactionStatus = "PAID"

	// Withdrawal lifecycle.
	StatusUnderReview  TransactionStatus = "UNDER_REVIEW"
	StatusProcessing   TransactionStatus = "PROCESSING"
	StatusRejected     TransactionStatus = "REJECTED"
	StatusPayoutFailed TransactionStatus = "PAYOUT_FAILED"

	// Fees and manual adjustments are recorded already settled.
	StatusCompleted TransactionStatus = "COMPLETED"
)

// Terminal reports whether a status may never be left again.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case StatusPaid, StatusCompleted, StatusRejected, StatusPayoutFailed:
		return true
	}
	return false
}

// Transaction is one ledger row. Amount is always a non-negative magnitude;
// the direction of the balance change is derived from Type. Only Status,
// Note, ExternalRef and UpdatedAt may change after creation.
type Transaction struct {
	ID     int64             `json:"id"`
	UserID int64             `json:"user_id"`
	Type   TransactionType   `json:"type"`
	Amount decimal.Decimal   `json:"amount"`
	Status TransactionStatus `json:"status"`

	// ExternalRef is the gateway's id for the deposit charge or the payout.
	ExternalRef *string `json:"external_ref,omitempty"`
	// PixKey is the payout destination supplied with a withdrawal request.
	PixKey *string `json:"pix_key,omitempty"`
	Note   *string `json:"note,omitempty"`
	// RelatedTxID links a FEE row to the DEPOSIT or WITHDRAWAL it was charged on.
	RelatedTxID *int64 `json:"related_tx_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
