package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/flexipay/wallet-service/internal/domain/models"
)

type UserRepository interface {
	// EnsureUser creates the user with a zero balance if it does not exist yet.
	EnsureUser(ctx context.Context, id int64, username, firstName string) error
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// AdjustBalance applies delta to the user's balance under an exclusive row
	// lock. A mutation that would leave the balance negative fails with
	// InsufficientFundsError and changes nothing; this is an expected outcome,
	// not an exceptional one.
	AdjustBalance(ctx context.Context, scope Scope, userID int64, delta decimal.Decimal) error

	// SetBalance overwrites the balance (admin adjustment).
	SetBalance(ctx context.Context, scope Scope, userID int64, balance decimal.Decimal) error

	// ListWithBalance returns users holding a positive balance, largest first.
	ListWithBalance(ctx context.Context) ([]models.User, error)
}
