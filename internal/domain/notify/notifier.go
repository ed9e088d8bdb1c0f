package notify

import (
	"context"

	"github.com/shopspring/decimal"
)

// Notifier delivers outcome messages outside the atomic boundary. Sends are
// best-effort: failures are logged by the implementation and never retried,
// and never roll back an already-committed mutation.
type Notifier interface {
	NotifyUser(ctx context.Context, userID int64, text string)
	NotifyAdminWithdrawal(ctx context.Context, txID, userID int64, firstName string, net decimal.Decimal, pixKey string)
}
