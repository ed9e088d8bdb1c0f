package interactor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/flexipay/wallet-service/internal/domain/models"
	"github.com/flexipay/wallet-service/internal/domain/notify"
	"github.com/flexipay/wallet-service/internal/domain/repositories"
	apperrors "github.com/flexipay/wallet-service/internal/errors"
	"github.com/flexipay/wallet-service/pkg/log"
)

type WithdrawalInteractor struct {
	store        repositories.Store
	transactions repositories.TransactionRepository
	users        repositories.UserRepository
	notifier     notify.Notifier
	fees         FeePolicy
	logger       *zerolog.Logger
}

func NewWithdrawalInteractor(
	store repositories.Store,
	transactions repositories.TransactionRepository,
	users repositories.UserRepository,
	notifier notify.Notifier,
	fees FeePolicy,
) *WithdrawalInteractor {
	l := log.GetLogger()
	return &WithdrawalInteractor{
		store:        store,
		transactions: transactions,
		users:        users,
		notifier:     notifier,
		fees:         fees,
		logger:       &l,
	}
}

// WithdrawalReceipt reports an accepted withdrawal request.
type WithdrawalReceipt struct {
	TransactionID int64           `json:"transaction_id"`
	GrossDebited  decimal.Decimal `json:"gross_debited"`
	NetPayable    decimal.Decimal `json:"net_payable"`
	Fee           decimal.Decimal `json:"fee"`
}

// Request validates and records a withdrawal. The gross amount is debited,
// the withdrawal goes UNDER_REVIEW with the net payable amount, and the fee
// is recorded COMPLETED against it, all in one scope so no partial debit is
// ever observable.
func (i *WithdrawalInteractor) Request(ctx context.Context, userID int64, pixKey string, gross decimal.Decimal) (*WithdrawalReceipt, error) {
	gross = gross.Round(2)
	if pixKey == "" {
		return nil, apperrors.NewBadRequestError("pix key is required")
	}
	if !gross.GreaterThan(i.fees.WithdrawFixed) {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf(
			"amount must exceed the fixed fee of %s", i.fees.WithdrawFixed.StringFixed(2),
		))
	}

	net := i.fees.WithdrawalNet(gross)
	if net.LessThan(i.fees.MinWithdrawNet) {
		return nil, apperrors.NewBelowMinimumError(i.fees.MinWithdrawNet.StringFixed(2))
	}
	fee := gross.Sub(net)

	user, err := i.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Balance.LessThan(gross) {
		return nil, apperrors.NewInsufficientFundsError()
	}

	scope, err := i.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin scope: %w", err)
	}

	txID, err := i.requestInScope(ctx, scope, userID, pixKey, gross, net, fee)
	if err != nil {
		scope.Rollback(ctx)
		return nil, err
	}

	if err := scope.Commit(ctx); err != nil {
		scope.Rollback(ctx)
		i.logger.Error().Err(err).Int64("user_id", userID).Msg(apperrors.ErrFailedRequestWithdrawal)
		return nil, fmt.Errorf("commit scope: %w", err)
	}

	i.logger.Info().
		Int64("tx_id", txID).
		Int64("user_id", userID).
		Str("net", net.StringFixed(2)).
		Msg("Withdrawal requested")

	i.notifier.NotifyAdminWithdrawal(ctx, txID, userID, user.FirstName, net, pixKey)

	return &WithdrawalReceipt{
		TransactionID: txID,
		GrossDebited:  gross,
		NetPayable:    net,
		Fee:           fee,
	}, nil
}

func (i *WithdrawalInteractor) requestInScope(ctx context.Context, scope repositories.Scope, userID int64, pixKey string, gross, net, fee decimal.Decimal) (int64, error) {
	// The row-lock check inside AdjustBalance is the authoritative guard; the
	// pre-validation above only produces a friendlier early rejection.
	if err := i.users.AdjustBalance(ctx, scope, userID, gross.Neg()); err != nil {
		return 0, err
	}

	txID, err := i.transactions.Record(ctx, scope, &models.Transaction{
		UserID: userID,
		Type:   models.TypeWithdrawal,
		Amount: net,
		Status: models.StatusUnderReview,
		PixKey: &pixKey,
	})
	if err != nil {
		return 0, err
	}

	note := fmt.Sprintf("Fee for withdrawal %d", txID)
	_, err = i.transactions.Record(ctx, scope, &models.Transaction{
		UserID:      userID,
		Type:        models.TypeFee,
		Amount:      fee,
		Status:      models.StatusCompleted,
		Note:        &note,
		RelatedTxID: &txID,
	})
	if err != nil {
		return 0, err
	}

	return txID, nil
}
