package app

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/flexipay/wallet-service/internal/config"
	"github.com/flexipay/wallet-service/internal/errors"
	"github.com/flexipay/wallet-service/internal/usecases/interactor"
	"github.com/flexipay/wallet-service/pkg/log"
)

type ReconcileHandler interface {
	Execute(ctx context.Context) (*interactor.ReconcileReport, error)
}

// ReconcileProcess runs the reconciliation cycle on a fixed interval until
// the context is cancelled. A failed cycle is logged and the loop carries on;
// only process shutdown stops reconciliation.
type ReconcileProcess struct {
	handler ReconcileHandler
	config  config.Reconciler
	logger  *zerolog.Logger
}

func NewReconcileProcess(h ReconcileHandler, cfg config.Reconciler) *ReconcileProcess {
	l := log.GetLogger()
	return &ReconcileProcess{handler: h, config: cfg, logger: &l}
}

// Run runs the reconciliation process.
func (p *ReconcileProcess) Run(ctx context.Context) error {
	interval, err := strconv.Atoi(p.config.IntervalSeconds)
	if err != nil {
		return err
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()

	p.logger.Info().Int("interval_seconds", interval).Msg("Reconciliation process started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Reconciliation process stopped")
			return ctx.Err()
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *ReconcileProcess) cycle(ctx context.Context) {
	report, err := p.handler.Execute(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg(errors.ErrFailedReconcileCycle)
		return
	}

	if report.Checked == 0 {
		return
	}

	event := p.logger.Info().
		Int("checked", report.Checked).
		Int("confirmed", report.Confirmed).
		Int("failures", len(report.Failures))
	event.Msg("Reconcile cycle finished")

	for _, f := range report.Failures {
		p.logger.Warn().Err(f.Err).Int64("tx_id", f.TransactionID).Msg("Reconcile item failed")
	}
}
