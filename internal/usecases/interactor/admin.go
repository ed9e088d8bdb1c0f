package interactor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	gw "github.com/flexipay/wallet-service/internal/domain/gateway"
	"github.com/flexipay/wallet-service/internal/domain/models"
	"github.com/flexipay/wallet-service/internal/domain/notify"
	"github.com/flexipay/wallet-service/internal/domain/repositories"
	apperrors "github.com/flexipay/wallet-service/internal/errors"
	"github.com/flexipay/wallet-service/pkg/log"
)

// AdminInteractor carries the admin review workflow: approving or rejecting
// withdrawals, manual balance adjustments, and balance listings. Rejection
// (and a failed payout) is the explicit action that refunds a debited
// withdrawal; no refund ever happens implicitly.
type AdminInteractor struct {
	store        repositories.Store
	transactions repositories.TransactionRepository
	users        repositories.UserRepository
	gateway      gw.Client
	notifier     notify.Notifier
	logger       *zerolog.Logger
}

func NewAdminInteractor(
	store repositories.Store,
	transactions repositories.TransactionRepository,
	users repositories.UserRepository,
	gateway gw.Client,
	notifier notify.Notifier,
) *AdminInteractor {
	l := log.GetLogger()
	return &AdminInteractor{
		store:        store,
		transactions: transactions,
		users:        users,
		gateway:      gateway,
		notifier:     notifier,
		logger:       &l,
	}
}

func (a *AdminInteractor) PendingWithdrawals(ctx context.Context) ([]models.Transaction, error) {
	return a.transactions.ListPendingWithdrawals(ctx)
}

func (a *AdminInteractor) UsersWithBalance(ctx context.Context) ([]models.User, error) {
	return a.users.ListWithBalance(ctx)
}

// ApproveWithdrawal sends the payout through the gateway. On gateway failure
// the withdrawal ends PAYOUT_FAILED and the full gross amount (net + fee) is
// refunded; the user must request again.
func (a *AdminInteractor) ApproveWithdrawal(ctx context.Context, txID int64) error {
	withdrawal, err := a.claimForPayout(ctx, txID)
	if err != nil {
		return err
	}

	payoutRef, err := a.gateway.CreatePayout(ctx, withdrawal.Amount, *withdrawal.PixKey, fmt.Sprintf("Withdrawal %d", txID))
	if err != nil {
		a.logger.Error().Err(err).Int64("tx_id", txID).Msg("Payout failed, refunding")
		return a.failPayout(ctx, withdrawal, err)
	}

	err = a.transactions.UpdateStatus(ctx, nil, txID, models.StatusCompleted, &repositories.StatusUpdate{
		ExternalRef: &payoutRef,
	})
	if err != nil {
		return err
	}

	a.logger.Info().Int64("tx_id", txID).Str("payout_ref", payoutRef).Msg("Withdrawal approved and paid")
	a.notifier.NotifyUser(ctx, withdrawal.UserID, fmt.Sprintf(
		"Your withdrawal of %s was approved and the payout was sent (transaction %d).",
		withdrawal.Amount.StringFixed(2), txID,
	))
	return nil
}

// claimForPayout moves the withdrawal UNDER_REVIEW to PROCESSING under the
// scope's row lock. Only one approval can claim a withdrawal; a concurrent
// attempt re-reads PROCESSING and gets AlreadyProcessedError before any
// payout is sent.
func (a *AdminInteractor) claimForPayout(ctx context.Context, txID int64) (*models.Transaction, error) {
	scope, err := a.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin scope: %w", err)
	}

	withdrawal, err := a.pendingWithdrawalForUpdate(ctx, scope, txID)
	if err == nil && withdrawal.PixKey == nil {
		err = apperrors.NewBadRequestError("withdrawal has no pix key")
	}
	if err == nil {
		err = a.transactions.UpdateStatus(ctx, scope, txID, models.StatusProcessing, nil)
	}
	if err != nil {
		scope.Rollback(ctx)
		return nil, err
	}
	if err := scope.Commit(ctx); err != nil {
		scope.Rollback(ctx)
		return nil, err
	}

	return withdrawal, nil
}

func (a *AdminInteractor) failPayout(ctx context.Context, withdrawal *models.Transaction, payoutErr error) error {
	refund, err := a.grossAmount(ctx, withdrawal)
	if err != nil {
		return err
	}

	scope, err := a.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin scope: %w", err)
	}

	note := fmt.Sprintf("Payout failed: %v; gross amount refunded", payoutErr)
	err = a.transactions.UpdateStatus(ctx, scope, withdrawal.ID, models.StatusPayoutFailed, &repositories.StatusUpdate{Note: &note})
	if err == nil {
		err = a.users.AdjustBalance(ctx, scope, withdrawal.UserID, refund)
	}
	if err != nil {
		scope.Rollback(ctx)
		a.logger.Error().Err(err).Int64("tx_id", withdrawal.ID).Msg("CRITICAL: payout failed and refund could not be recorded, manual intervention required")
		return err
	}
	if err := scope.Commit(ctx); err != nil {
		scope.Rollback(ctx)
		a.logger.Error().Err(err).Int64("tx_id", withdrawal.ID).Msg("CRITICAL: payout failed and refund could not be committed, manual intervention required")
		return err
	}

	a.notifier.NotifyUser(ctx, withdrawal.UserID, fmt.Sprintf(
		"The payout for your withdrawal (transaction %d) failed. The full amount of %s was returned to your balance.",
		withdrawal.ID, refund.StringFixed(2),
	))
	return apperrors.NewGatewayError(payoutErr)
}

// RejectWithdrawal refunds the full gross amount (net + fee) and marks the
// withdrawal REJECTED, atomically. The locked re-read keeps a rejection from
// crossing an approval that already claimed the row for payout.
func (a *AdminInteractor) RejectWithdrawal(ctx context.Context, txID int64, reason string) error {
	scope, err := a.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin scope: %w", err)
	}

	withdrawal, err := a.pendingWithdrawalForUpdate(ctx, scope, txID)
	if err != nil {
		scope.Rollback(ctx)
		return err
	}

	refund, err := a.grossAmount(ctx, withdrawal)
	if err != nil {
		scope.Rollback(ctx)
		return err
	}

	note := "Rejected by admin"
	if reason != "" {
		note = fmt.Sprintf("Rejected by admin: %s", reason)
	}
	err = a.transactions.UpdateStatus(ctx, scope, txID, models.StatusRejected, &repositories.StatusUpdate{Note: &note})
	if err == nil {
		err = a.users.AdjustBalance(ctx, scope, withdrawal.UserID, refund)
	}
	if err != nil {
		scope.Rollback(ctx)
		return err
	}
	if err := scope.Commit(ctx); err != nil {
		scope.Rollback(ctx)
		a.logger.Error().Err(err).Int64("tx_id", txID).Msg("CRITICAL: rejection refund could not be committed, manual intervention required")
		return err
	}

	a.logger.Info().Int64("tx_id", txID).Str("refund", refund.StringFixed(2)).Msg("Withdrawal rejected, amount refunded")
	a.notifier.NotifyUser(ctx, withdrawal.UserID, fmt.Sprintf(
		"Your withdrawal request (transaction %d) was rejected. The debited amount of %s was fully returned to your balance.",
		txID, refund.StringFixed(2),
	))
	return nil
}

// SetBalance overwrites a user's balance and records a MANUAL_ADJUST row in
// the same scope so the ledger stays auditable.
func (a *AdminInteractor) SetBalance(ctx context.Context, userID int64, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return apperrors.NewBadRequestError("balance cannot be negative")
	}
	balance = balance.Round(2)

	scope, err := a.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin scope: %w", err)
	}

	note := fmt.Sprintf("Balance set to %s by admin", balance.StringFixed(2))
	err = a.users.SetBalance(ctx, scope, userID, balance)
	if err == nil {
		_, err = a.transactions.Record(ctx, scope, &models.Transaction{
			UserID: userID,
			Type:   models.TypeManualAdjust,
			Amount: balance,
			Status: models.StatusCompleted,
			Note:   &note,
		})
	}
	if err != nil {
		scope.Rollback(ctx)
		return err
	}
	if err := scope.Commit(ctx); err != nil {
		scope.Rollback(ctx)
		return err
	}

	a.notifier.NotifyUser(ctx, userID, fmt.Sprintf("Your balance was adjusted to %s by an administrator.", balance.StringFixed(2)))
	return nil
}

// pendingWithdrawalForUpdate re-reads the withdrawal under the scope's row
// lock. Only an UNDER_REVIEW row may be claimed or rejected; anything else is
// already owned by a racing admin action.
func (a *AdminInteractor) pendingWithdrawalForUpdate(ctx context.Context, scope repositories.Scope, txID int64) (*models.Transaction, error) {
	tx, err := a.transactions.GetByIDForUpdate(ctx, scope, txID)
	if err != nil {
		return nil, err
	}
	if tx == nil || tx.Type != models.TypeWithdrawal {
		return nil, apperrors.NewNotFoundError("withdrawal not found")
	}
	if tx.Status != models.StatusUnderReview {
		return nil, apperrors.NewAlreadyProcessedError(txID)
	}
	return tx, nil
}

// grossAmount reconstructs the original debit: net payable plus the fee
// recorded against the withdrawal.
func (a *AdminInteractor) grossAmount(ctx context.Context, withdrawal *models.Transaction) (decimal.Decimal, error) {
	fee, err := a.transactions.FeeForOrigin(ctx, withdrawal.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return withdrawal.Amount.Add(fee), nil
}
