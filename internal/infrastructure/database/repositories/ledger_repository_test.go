package repositories

import (
	"context"
	"sync"
	"testing"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexipay/wallet-service/internal/config"
	"github.com/flexipay/wallet-service/internal/domain/models"
	apperr "github.com/flexipay/wallet-service/internal/errors"
	"github.com/flexipay/wallet-service/internal/infrastructure/database"
)

var (
	userID int64 = 424242
	db     *pgxpool.Pool
)

// setupDB connects to the database from the environment config. The suite is
// skipped when no database is reachable.
func setupDB(t *testing.T) {
	t.Helper()
	cnf := config.Load()

	pgConfig, err := pgxpool.ParseConfig(cnf.DSN())
	require.NoError(t, err)

	pgConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	db, err = pgxpool.NewWithConfig(context.Background(), pgConfig)
	require.NoError(t, err)

	if err := db.Ping(context.Background()); err != nil {
		t.Skipf("database not reachable: %v", err)
	}
}

func truncateTransactionsTable(db *pgxpool.Pool) error {
	_, err := db.Exec(context.Background(), "TRUNCATE TABLE transactions")
	return err
}

func setInitialUserBalance(db *pgxpool.Pool, balance string) error {
	_, err := db.Exec(context.Background(), "UPDATE users SET balance = $1 WHERE id = $2", balance, userID)
	return err
}

func TestBalanceAdjustments(t *testing.T) {
	setupDB(t)
	defer db.Close()

	userRepo := NewUserRepositoryImpl(db)
	require.NoError(t, userRepo.EnsureUser(context.Background(), userID, "tester", "Tester"))
	require.NoError(t, truncateTransactionsTable(db))
	require.NoError(t, setInitialUserBalance(db, "0.00"))

	t.Run("credit and debit", func(t *testing.T) {
		require.NoError(t, userRepo.AdjustBalance(context.Background(), nil, userID, decimal.RequireFromString("100.00")))
		require.NoError(t, userRepo.AdjustBalance(context.Background(), nil, userID, decimal.RequireFromString("-40.00")))

		user, err := userRepo.GetByID(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, "60.00", user.Balance.StringFixed(2))
	})

	t.Run("debit below zero fails and changes nothing", func(t *testing.T) {
		require.NoError(t, setInitialUserBalance(db, "10.00"))

		err := userRepo.AdjustBalance(context.Background(), nil, userID, decimal.RequireFromString("-10.01"))
		var insufficient *apperr.InsufficientFundsError
		assert.True(t, apperr.As(err, &insufficient))

		user, err := userRepo.GetByID(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, "10.00", user.Balance.StringFixed(2))
	})

	t.Run("balance stays non-negative under concurrency", func(t *testing.T) {
		require.NoError(t, setInitialUserBalance(db, "100.00"))

		n := 200
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func(i int) {
				defer wg.Done()
				delta := decimal.NewFromInt(int64(i%10 + 1))
				if i%2 == 0 {
					delta = delta.Neg()
				}
				err := userRepo.AdjustBalance(context.Background(), nil, userID, delta)
				if err != nil {
					var insufficient *apperr.InsufficientFundsError
					if !apperr.As(err, &insufficient) {
						t.Error(err)
					}
				}
			}(i)
		}
		wg.Wait()

		user, err := userRepo.GetByID(context.Background(), userID)
		require.NoError(t, err)
		assert.False(t, user.Balance.IsNegative(), "The final balance must be non-negative")
	})
}

func TestScopeAtomicity(t *testing.T) {
	setupDB(t)
	defer db.Close()

	store := database.NewStore(db)
	userRepo := NewUserRepositoryImpl(db)
	txRepo := NewTransactionRepositoryImpl(db)

	require.NoError(t, userRepo.EnsureUser(context.Background(), userID, "tester", "Tester"))
	require.NoError(t, truncateTransactionsTable(db))
	require.NoError(t, setInitialUserBalance(db, "100.00"))

	t.Run("rollback discards every mutation", func(t *testing.T) {
		scope, err := store.Begin(context.Background())
		require.NoError(t, err)

		require.NoError(t, userRepo.AdjustBalance(context.Background(), scope, userID, decimal.RequireFromString("-100.00")))
		_, err = txRepo.Record(context.Background(), scope, &models.Transaction{
			UserID: userID,
			Type:   models.TypeWithdrawal,
			Amount: decimal.RequireFromString("93.33"),
			Status: models.StatusUnderReview,
		})
		require.NoError(t, err)

		require.NoError(t, scope.Rollback(context.Background()))

		user, err := userRepo.GetByID(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, "100.00", user.Balance.StringFixed(2))

		pending, err := txRepo.ListPendingWithdrawals(context.Background())
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("commit publishes both mutations", func(t *testing.T) {
		scope, err := store.Begin(context.Background())
		require.NoError(t, err)

		require.NoError(t, userRepo.AdjustBalance(context.Background(), scope, userID, decimal.RequireFromString("-100.00")))
		id, err := txRepo.Record(context.Background(), scope, &models.Transaction{
			UserID: userID,
			Type:   models.TypeWithdrawal,
			Amount: decimal.RequireFromString("93.33"),
			Status: models.StatusUnderReview,
		})
		require.NoError(t, err)
		require.NoError(t, scope.Commit(context.Background()))

		user, err := userRepo.GetByID(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, "0.00", user.Balance.StringFixed(2))

		got, err := txRepo.GetByID(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.StatusUnderReview, got.Status)
	})
}

func TestUpdateStatusTerminalGuard(t *testing.T) {
	setupDB(t)
	defer db.Close()

	userRepo := NewUserRepositoryImpl(db)
	txRepo := NewTransactionRepositoryImpl(db)

	require.NoError(t, userRepo.EnsureUser(context.Background(), userID, "tester", "Tester"))
	require.NoError(t, truncateTransactionsTable(db))

	id, err := txRepo.Record(context.Background(), nil, &models.Transaction{
		UserID: userID,
		Type:   models.TypeDeposit,
		Amount: decimal.RequireFromString("100.00"),
		Status: models.StatusPending,
	})
	require.NoError(t, err)

	require.NoError(t, txRepo.UpdateStatus(context.Background(), nil, id, models.StatusPaid, nil))

	// A terminal row never moves again.
	err = txRepo.UpdateStatus(context.Background(), nil, id, models.StatusRejected, nil)
	var already *apperr.AlreadyProcessedError
	assert.True(t, apperr.As(err, &already))

	got, err := txRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, got.Status)

	// Unknown ids are reported as missing, not as processed.
	err = txRepo.UpdateStatus(context.Background(), nil, id+1000, models.StatusPaid, nil)
	var notFound *apperr.NotFoundError
	assert.True(t, apperr.As(err, &notFound))
}
