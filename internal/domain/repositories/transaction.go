package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flexipay/wallet-service/internal/domain/models"
)

const (
	SerializationError   = "40001"
	UniqueViolationError = "23505"
)

// StatusUpdate carries the optional mutable fields of a transaction that may
// accompany a status transition.
type StatusUpdate struct {
	ExternalRef *string
	Note        *string
}

type TransactionRepository interface {
	// Record inserts one ledger row with server-assigned timestamps and
	// returns the generated id.
	Record(ctx context.Context, scope Scope, tx *models.Transaction) (int64, error)

	// UpdateStatus moves a transaction to a new status and stamps updated_at.
	// Rows already in a terminal status are never moved again; attempting to
	// do so fails with AlreadyProcessedError.
	UpdateStatus(ctx context.Context, scope Scope, id int64, status models.TransactionStatus, fields *StatusUpdate) error

	GetByID(ctx context.Context, id int64) (*models.Transaction, error)
	GetByIDAndUser(ctx context.Context, id, userID int64) (*models.Transaction, error)

	// GetByIDForUpdate re-reads a transaction under the scope's row lock. This
	// is the idempotency guard for racing confirmation paths.
	GetByIDForUpdate(ctx context.Context, scope Scope, id int64) (*models.Transaction, error)

	// ListPendingDeposits returns PENDING deposits created within the sliding
	// window; older pending deposits are excluded from automatic retry.
	ListPendingDeposits(ctx context.Context, window time.Duration) ([]models.Transaction, error)

	// ListPendingWithdrawals returns withdrawals awaiting admin review.
	ListPendingWithdrawals(ctx context.Context) ([]models.Transaction, error)

	// FeeForOrigin returns the fee amount recorded against the given
	// originating transaction, or zero if none exists.
	FeeForOrigin(ctx context.Context, relatedTxID int64) (decimal.Decimal, error)

	// RealizedProfit sums COMPLETED fees whose origin is a deposit, or a
	// withdrawal that itself reached COMPLETED.
	RealizedProfit(ctx context.Context) (decimal.Decimal, error)

	// LastActivity returns the most recent updated_at among the user's
	// transactions, or nil if there are none.
	LastActivity(ctx context.Context, userID int64) (*time.Time, error)
}
