package notify

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/flexipay/wallet-service/pkg/log"
)

// NoopNotifier is used when no bot token is configured; it only logs.
type NoopNotifier struct {
	logger *zerolog.Logger
}

func NewNoopNotifier() *NoopNotifier {
	l := log.GetLogger()
	return &NoopNotifier{logger: &l}
}

func (n *NoopNotifier) NotifyUser(_ context.Context, userID int64, text string) {
	n.logger.Debug().Int64("user_id", userID).Str("text", text).Msg("Notification dropped (no channel configured)")
}

func (n *NoopNotifier) NotifyAdminWithdrawal(_ context.Context, txID, userID int64, _ string, _ decimal.Decimal, _ string) {
	n.logger.Debug().Int64("tx_id", txID).Int64("user_id", userID).Msg("Admin notification dropped (no channel configured)")
}
