package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

const transactionColumns = "id, user_id, type, amount, status, external_ref, pix_key, note, related_tx_id, created_at, updated_at"

// terminalStatuses guards UpdateStatus against regressing a settled row.
const terminalStatuses = "'PAID', 'COMPLETED', 'REJECTED', 'PAYOUT_FAILED'"

type TransactionRepositoryImpl struct {
	db     *pgxpool.Pool
	logger *zerolog.Logger
}

// NewTransactionRepositoryImpl creates new instance of TransactionRepositoryImpl.
func NewTransactionRepositoryImpl(db *pgxpool.Pool) repositories.TransactionRepository {
	l := log.GetLogger()
	return &TransactionRepositoryImpl{
		db:     db,
		logger: &l,
	}
}

func (r *TransactionRepositoryImpl) Record(ctx context.Context, scope repositories.Scope, tx *models.Transaction) (int64, error) {
	q := database.ScopeQuerier(scope, r.db)

	var id int64
	err := q.QueryRow(
		ctx,
		`INSERT INTO transactions (user_id, type, amount, status, external_ref, pix_key, note, related_tx_id)
		 VALUES ($1, $2, $3::NUMERIC(15,2), $4, $5, $6, $7, $8)
		 RETURNING id`,
		tx.UserID, tx.Type, tx.Amount, tx.Status, tx.ExternalRef, tx.PixKey, tx.Note, tx.RelatedTxID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("record transaction: %w", err)
	}

	r.logger.Info().
		Int64("tx_id", id).
		Str("type", string(tx.Type)).
		Int64("user_id", tx.UserID).
		Msg("Transaction recorded")
	return id, nil
}

func (r *TransactionRepositoryImpl) UpdateStatus(ctx context.Context, scope repositories.Scope, id int64, status models.TransactionStatus, fields *repositories.StatusUpdate) error {
	q := database.ScopeQuerier(scope, r.db)

	set := []string{"status = $1", "updated_at = now()"}
	args := []interface{}{status}
	if fields != nil {
		if fields.ExternalRef != nil {
			args = append(args, *fields.ExternalRef)
			set = append(set, fmt.Sprintf("external_ref = $%d", len(args)))
		}
		if fields.Note != nil {
			args = append(args, *fields.Note)
			set = append(set, fmt.Sprintf("note = $%d", len(args)))
		}
	}
	args = append(args, id)

	sql := fmt.Sprintf(
		"UPDATE transactions SET %s WHERE id = $%d AND status NOT IN (%s)",
		strings.Join(set, ", "), len(args), terminalStatuses,
	)

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update transaction %d status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a terminal one.
		var current models.TransactionStatus
		err := q.QueryRow(ctx, "SELECT status FROM transactions WHERE id = $1", id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFoundError("transaction not found")
		}
		if err != nil {
			return fmt.Errorf("check transaction %d status: %w", id, err)
		}
		return apperrors.NewAlreadyProcessedError(id)
	}

	r.logger.Info().Int64("tx_id", id).Str("status", string(status)).Msg("Transaction status updated")
	return nil
}

func (r *TransactionRepositoryImpl) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	return r.get(ctx, r.db, "SELECT "+transactionColumns+" FROM transactions WHERE id = $1", id)
}

func (r *TransactionRepositoryImpl) GetByIDAndUser(ctx context.Context, id, userID int64) (*models.Transaction, error) {
	return r.get(ctx, r.db, "SELECT "+transactionColumns+" FROM transactions WHERE id = $1 AND user_id = $2", id, userID)
}

func (r *TransactionRepositoryImpl) GetByIDForUpdate(ctx context.Context, scope repositories.Scope, id int64) (*models.Transaction, error) {
	q := database.ScopeQuerier(scope, r.db)
	return r.get(ctx, q, "SELECT "+transactionColumns+" FROM transactions WHERE id = $1 FOR UPDATE", id)
}

func (r *TransactionRepositoryImpl) get(ctx context.Context, q database.Querier, sql string, args ...interface{}) (*models.Transaction, error) {
	tx := &models.Transaction{}
	err := q.QueryRow(ctx, sql, args...).Scan(
		&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.Status,
		&tx.ExternalRef, &tx.PixKey, &tx.Note, &tx.RelatedTxID,
		&tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return tx, nil
}

func (r *TransactionRepositoryImpl) ListPendingDeposits(ctx context.Context, window time.Duration) ([]models.Transaction, error) {
	cutoff := time.Now().Add(-window)
	return r.list(
		ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE type = $1 AND status = $2 AND created_at >= $3 ORDER BY created_at",
		models.TypeDeposit, models.StatusPending, cutoff,
	)
}

func (r *TransactionRepositoryImpl) ListPendingWithdrawals(ctx context.Context) ([]models.Transaction, error) {
	return r.list(
		ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE type = $1 AND status = $2 ORDER BY created_at",
		models.TypeWithdrawal, models.StatusUnderReview,
	)
}

func (r *TransactionRepositoryImpl) list(ctx context.Context, sql string, args ...interface{}) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]models.Transaction, 0)
	for rows.Next() {
		var tx models.Transaction
		err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.Status,
			&tx.ExternalRef, &tx.PixKey, &tx.Note, &tx.RelatedTxID,
			&tx.CreatedAt, &tx.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	return txs, rows.Err()
}

func (r *TransactionRepositoryImpl) FeeForOrigin(ctx context.Context, relatedTxID int64) (decimal.Decimal, error) {
	var fee decimal.Decimal
	err := r.db.QueryRow(
		ctx,
		"SELECT COALESCE(SUM(amount), 0.00) FROM transactions WHERE type = $1 AND related_tx_id = $2",
		models.TypeFee, relatedTxID,
	).Scan(&fee)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fee for transaction %d: %w", relatedTxID, err)
	}
	return fee, nil
}

const realizedProfitQuery = `
SELECT COALESCE(SUM(f.amount), 0.00)
FROM transactions f
JOIN transactions o ON o.id = f.related_tx_id
WHERE f.type = 'FEE' AND f.status = 'COMPLETED'
  AND (
    -- Deposit fees always count: they are only ever recorded on success.
    o.type = 'DEPOSIT'
    OR
    -- Withdrawal fees count once the withdrawal itself completed.
    (o.type = 'WITHDRAWAL' AND o.status = 'COMPLETED')
  );`

func (r *TransactionRepositoryImpl) RealizedProfit(ctx context.Context) (decimal.Decimal, error) {
	var profit decimal.Decimal
	err := r.db.QueryRow(ctx, realizedProfitQuery).Scan(&profit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("realized profit: %w", err)
	}
	return profit, nil
}

func (r *TransactionRepositoryImpl) LastActivity(ctx context.Context, userID int64) (*time.Time, error) {
	var t time.Time
	err := r.db.QueryRow(
		ctx,
		"SELECT updated_at FROM transactions WHERE user_id = $1 ORDER BY updated_at DESC LIMIT 1",
		userID,
	).Scan(&t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}
