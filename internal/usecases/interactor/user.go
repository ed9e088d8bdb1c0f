package interactor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flexipay/wallet-service/internal/domain/models"
	"github.com/flexipay/wallet-service/internal/domain/repositories"
)

type UserInteractor struct {
	users        repositories.UserRepository
	transactions repositories.TransactionRepository
}

func NewUserInteractor(users repositories.UserRepository, transactions repositories.TransactionRepository) *UserInteractor {
	return &UserInteractor{users: users, transactions: transactions}
}

// Ensure creates the user lazily on first interaction.
func (u *UserInteractor) Ensure(ctx context.Context, id int64, username, firstName string) error {
	return u.users.EnsureUser(ctx, id, username, firstName)
}

func (u *UserInteractor) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return u.users.GetByID(ctx, id)
}

// Wallet is the balance view returned to the front-end.
type Wallet struct {
	UserID       int64           `json:"user_id"`
	Balance      decimal.Decimal `json:"balance"`
	LastActivity *time.Time      `json:"last_activity,omitempty"`
}

func (u *UserInteractor) GetWallet(ctx context.Context, id int64) (*Wallet, error) {
	user, err := u.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	last, err := u.transactions.LastActivity(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Wallet{UserID: user.ID, Balance: user.Balance, LastActivity: last}, nil
}
