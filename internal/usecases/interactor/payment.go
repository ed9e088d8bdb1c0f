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

// PaymentInteractor drives the deposit lifecycle: creating the gateway charge
// and confirming it once the gateway reports approval.
type PaymentInteractor struct {
	store        repositories.Store
	transactions repositories.TransactionRepository
	users        repositories.UserRepository
	gateway      gw.Client
	notifier     notify.Notifier
	fees         FeePolicy
	logger       *zerolog.Logger
}

func NewPaymentInteractor(
	store repositories.Store,
	transactions repositories.TransactionRepository,
	users repositories.UserRepository,
	gateway gw.Client,
	notifier notify.Notifier,
	fees FeePolicy,
) *PaymentInteractor {
	l := log.GetLogger()
	return &PaymentInteractor{
		store:        store,
		transactions: transactions,
		users:        users,
		gateway:      gateway,
		notifier:     notifier,
		fees:         fees,
		logger:       &l,
	}
}

// DepositCharge is the outcome of CreateDeposit: the ledger row plus the
// copy-paste code the user pays with.
type DepositCharge struct {
	TransactionID int64           `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	CopyPaste     string          `json:"copy_paste"`
}

// CreateDeposit generates a gateway charge and records a PENDING deposit
// holding the gateway's reference.
func (i *PaymentInteractor) CreateDeposit(ctx context.Context, userID int64, amount decimal.Decimal) (*DepositCharge, error) {
	amount = amount.Round(2)
	if amount.LessThan(i.fees.DepositMin) || amount.GreaterThan(i.fees.DepositMax) {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf(
			"deposit must be between %s and %s",
			i.fees.DepositMin.StringFixed(2), i.fees.DepositMax.StringFixed(2),
		))
	}

	payment, err := i.gateway.CreatePayment(ctx, amount, userID, fmt.Sprintf("Deposit for user %d", userID))
	if err != nil {
		i.logger.Error().Err(err).Int64("user_id", userID).Msg(apperrors.ErrFailedCreateDeposit)
		return nil, err
	}

	txID, err := i.transactions.Record(ctx, nil, &models.Transaction{
		UserID:      userID,
		Type:        models.TypeDeposit,
		Amount:      amount,
		Status:      models.StatusPending,
		ExternalRef: &payment.ID,
	})
	if err != nil {
		return nil, err
	}

	return &DepositCharge{
		TransactionID: txID,
		Amount:        amount,
		CopyPaste:     payment.CopyPaste,
	}, nil
}

// DepositResult reports a confirmed deposit.
type DepositResult struct {
	TransactionID int64           `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	NetCredited   decimal.Decimal `json:"net_credited"`

	userID int64
}

// ConfirmDeposit settles an approved deposit inside one scope: credit the net
// amount, record the fee, mark the deposit PAID. The status re-read
// under the scope's lock is the idempotency guard against the manual
// verification path racing the reconciler; the loser of that race gets
// AlreadyProcessedError and no side effects.
func (i *PaymentInteractor) ConfirmDeposit(ctx context.Context, txID int64) (*DepositResult, error) {
	scope, err := i.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin scope: %w", err)
	}

	result, err := i.confirmInScope(ctx, scope, txID)
	if err != nil {
		scope.Rollback(ctx)
		return nil, err
	}

	if err := scope.Commit(ctx); err != nil {
		scope.Rollback(ctx)
		i.logger.Error().Err(err).Int64("tx_id", txID).Msg(apperrors.ErrFailedConfirmDeposit)
		return nil, fmt.Errorf("commit scope: %w", err)
	}

	i.logger.Info().
		Int64("tx_id", txID).
		Str("net", result.NetCredited.StringFixed(2)).
		Msg("Deposit confirmed")

	// Best-effort, outside the atomic boundary.
	i.notifier.NotifyUser(ctx, result.userID, fmt.Sprintf(
		"Your deposit of %s was confirmed. %s was added to your wallet (transaction %d).",
		result.Amount.StringFixed(2), result.NetCredited.StringFixed(2), txID,
	))

	return result, nil
}

func (i *PaymentInteractor) confirmInScope(ctx context.Context, scope repositories.Scope, txID int64) (*DepositResult, error) {
	deposit, err := i.transactions.GetByIDForUpdate(ctx, scope, txID)
	if err != nil {
		return nil, err
	}
	if deposit == nil || deposit.Type != models.TypeDeposit {
		return nil, apperrors.NewNotFoundError("deposit not found")
	}
	if deposit.Status != models.StatusPending {
		return nil, apperrors.NewAlreadyProcessedError(txID)
	}

	fee := i.fees.DepositFee(deposit.Amount)
	net := deposit.Amount.Sub(fee)

	if err := i.users.AdjustBalance(ctx, scope, deposit.UserID, net); err != nil {
		return nil, err
	}

	note := fmt.Sprintf("Deposit fee for transaction %d", txID)
	_, err = i.transactions.Record(ctx, scope, &models.Transaction{
		UserID:      deposit.UserID,
		Type:        models.TypeFee,
		Amount:      fee,
		Status:      models.StatusCompleted,
		Note:        &note,
		RelatedTxID: &txID,
	})
	if err != nil {
		return nil, err
	}

	if err := i.transactions.UpdateStatus(ctx, scope, txID, models.StatusPaid, nil); err != nil {
		return nil, err
	}

	return &DepositResult{
		TransactionID: txID,
		Amount:        deposit.Amount,
		Fee:           fee,
		NetCredited:   net,
		userID:        deposit.UserID,
	}, nil
}

// VerifyDeposit is the manual re-check path: the user asks whether a pending
// deposit has settled at the gateway. Approved deposits are confirmed through
// the same scope-guarded path the reconciler uses.
func (i *PaymentInteractor) VerifyDeposit(ctx context.Context, userID, txID int64) (*DepositResult, error) {
	tx, err := i.transactions.GetByIDAndUser(ctx, txID, userID)
	if err != nil {
		return nil, err
	}
	if tx == nil || tx.Type != models.TypeDeposit {
		return nil, apperrors.NewNotFoundError("deposit not found")
	}
	if tx.Status != models.StatusPending {
		return nil, apperrors.NewAlreadyProcessedError(txID)
	}
	if tx.ExternalRef == nil {
		return nil, apperrors.NewBadRequestError("deposit has no gateway reference")
	}

	status, err := i.gateway.GetStatus(ctx, *tx.ExternalRef)
	if err != nil {
		// Ambiguous gateway answer reads as not approved; the deposit stays
		// pending and remains retryable.
		i.logger.Warn().Err(err).Int64("tx_id", txID).Msg("Gateway status query failed")
	}
	if status != gw.StatusApproved {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("deposit still awaiting payment (gateway status: %s)", status))
	}

	return i.ConfirmDeposit(ctx, txID)
}
