package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/flexipay/wallet-service/internal/domain/models"
	"github.com/flexipay/wallet-service/internal/domain/repositories"
	apperrors "github.com/flexipay/wallet-service/internal/errors"
	"github.com/flexipay/wallet-service/internal/infrastructure/database"
	"github.com/flexipay/wallet-service/pkg/log"
)

type UserRepositoryImpl struct {
	db     *pgxpool.Pool
	logger *zerolog.Logger
}

// NewUserRepositoryImpl creates new instance of UserRepositoryImpl.
func NewUserRepositoryImpl(db *pgxpool.Pool) repositories.UserRepository {
	l := log.GetLogger()
	return &UserRepositoryImpl{
		db:     db,
		logger: &l,
	}
}

func (r *UserRepositoryImpl) EnsureUser(ctx context.Context, id int64, username, firstName string) error {
	tag, err := r.db.Exec(
		ctx,
		`INSERT INTO users (id, username, first_name, balance)
		 VALUES ($1, $2, $3, 0.00)
		 ON CONFLICT (id) DO NOTHING`,
		id, username, firstName,
	)
	if err != nil {
		return fmt.Errorf("ensure user %d: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		r.logger.Info().Int64("user_id", id).Str("first_name", firstName).Msg("New user created")
	}
	return nil
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(
		ctx,
		"SELECT id, COALESCE(username, ''), COALESCE(first_name, ''), balance, created_at FROM users WHERE id = $1",
		id,
	).Scan(&user.ID, &user.Username, &user.FirstName, &user.Balance, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("user not found")
		}
		return nil, err
	}

	return user, nil
}

// AdjustBalance performs the read-modify-write under an exclusive row lock.
// With a nil scope it opens its own transaction so the lock still spans the
// whole sequence.
func (r *UserRepositoryImpl) AdjustBalance(ctx context.Context, scope repositories.Scope, userID int64, delta decimal.Decimal) error {
	if scope == nil {
		tx, err := r.db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if err := r.adjust(ctx, tx, userID, delta); err != nil {
			tx.Rollback(ctx)
			return err
		}
		return tx.Commit(ctx)
	}
	return r.adjust(ctx, database.ScopeQuerier(scope, r.db), userID, delta)
}

func (r *UserRepositoryImpl) adjust(ctx context.Context, q database.Querier, userID int64, delta decimal.Decimal) error {
	var balance decimal.Decimal
	err := q.QueryRow(ctx, "SELECT balance FROM users WHERE id = $1 FOR UPDATE", userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFoundError("user not found")
		}
		return fmt.Errorf("lock balance row: %w", err)
	}

	newBalance := balance.Add(delta)
	if newBalance.IsNegative() {
		return apperrors.NewInsufficientFundsError()
	}

	_, err = q.Exec(ctx, "UPDATE users SET balance = $1 WHERE id = $2", newBalance, userID)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	r.logger.Info().
		Int64("user_id", userID).
		Str("from", balance.StringFixed(2)).
		Str("to", newBalance.StringFixed(2)).
		Str("delta", delta.StringFixed(2)).
		Msg("Balance updated")
	return nil
}

func (r *UserRepositoryImpl) SetBalance(ctx context.Context, scope repositories.Scope, userID int64, balance decimal.Decimal) error {
	q := database.ScopeQuerier(scope, r.db)
	tag, err := q.Exec(ctx, "UPDATE users SET balance = $1 WHERE id = $2", balance, userID)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("user not found")
	}
	return nil
}

func (r *UserRepositoryImpl) ListWithBalance(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, COALESCE(username, ''), COALESCE(first_name, ''), balance, created_at
		 FROM users WHERE balance > 0 ORDER BY balance DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.Balance, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
