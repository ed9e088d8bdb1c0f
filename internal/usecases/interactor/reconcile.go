package interactor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	gw "github.com/flexipay/wallet-service/internal/domain/gateway"
	"github.com/flexipay/wallet-service/internal/domain/repositories"
	apperrors "github.com/flexipay/wallet-service/internal/errors"
	"github.com/flexipay/wallet-service/pkg/log"
)

// ReconcileReport is the structured outcome of one reconciliation cycle.
type ReconcileReport struct {
	Checked   int
	Confirmed int
	Failures  []ReconcileFailure
}

// ReconcileFailure records one transaction the cycle could not settle. The
// deposit stays PENDING and is retried on the next cycle.
type ReconcileFailure struct {
	TransactionID int64
	Err           error
}

// ReconcileInteractor verifies pending deposits against the gateway's
// authoritative status and settles the approved ones.
type ReconcileInteractor struct {
	transactions   repositories.TransactionRepository
	gateway        gw.Client
	payments       *PaymentInteractor
	window         time.Duration
	gatewayTimeout time.Duration
	logger         *zerolog.Logger
}

func NewReconcileInteractor(
	transactions repositories.TransactionRepository,
	gateway gw.Client,
	payments *PaymentInteractor,
	window time.Duration,
	gatewayTimeout time.Duration,
) *ReconcileInteractor {
	l := log.GetLogger()
	return &ReconcileInteractor{
		transactions:   transactions,
		gateway:        gateway,
		payments:       payments,
		window:         window,
		gatewayTimeout: gatewayTimeout,
		logger:         &l,
	}
}

// Execute runs one cycle. A failure on one transaction never aborts the rest
// of the batch; per-item errors are collected into the report.
func (r *ReconcileInteractor) Execute(ctx context.Context) (*ReconcileReport, error) {
	pending, err := r.transactions.ListPendingDeposits(ctx, r.window)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{Checked: len(pending)}
	for _, deposit := range pending {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if deposit.ExternalRef == nil {
			continue
		}

		// Bound each gateway call so one stalled call cannot stall the cycle.
		gctx, cancel := context.WithTimeout(ctx, r.gatewayTimeout)
		status, err := r.gateway.GetStatus(gctx, *deposit.ExternalRef)
		cancel()
		if err != nil {
			// Same as "not approved": stays pending, retried next cycle.
			r.logger.Warn().Err(err).Int64("tx_id", deposit.ID).Msg("Gateway status query failed")
			report.Failures = append(report.Failures, ReconcileFailure{TransactionID: deposit.ID, Err: err})
			continue
		}
		if status != gw.StatusApproved {
			continue
		}

		if _, err := r.payments.ConfirmDeposit(ctx, deposit.ID); err != nil {
			var already *apperrors.AlreadyProcessedError
			if apperrors.As(err, &already) {
				// A manual verification won the race; nothing left to do.
				continue
			}
			r.logger.Error().Err(err).Int64("tx_id", deposit.ID).Msg("Failed to settle approved deposit")
			report.Failures = append(report.Failures, ReconcileFailure{TransactionID: deposit.ID, Err: err})
			continue
		}
		report.Confirmed++
	}

	return report, nil
}
