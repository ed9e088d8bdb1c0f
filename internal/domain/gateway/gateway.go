package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// Status is the gateway's view of a payment. Anything the gateway reports that
// is not recognized maps to StatusUnknown, which callers treat the same as
// "not yet approved".
type Status string

const (
	StatusApproved Status = "approved"
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
	StatusUnknown  Status = "unknown"
)

// Payment is a freshly created charge.
type Payment struct {
	ID        string
	CopyPaste string
}

// Client is the payment-gateway capability consumed by the core. Responses
// are untrusted input; implementations bound every call with a timeout.
type Client interface {
	GetStatus(ctx context.Context, externalRef string) (Status, error)
	CreatePayment(ctx context.Context, amount decimal.Decimal, payerID int64, description string) (*Payment, error)

	// CreatePayout sends funds to a pix key and returns the gateway's payout id.
	CreatePayout(ctx context.Context, amount decimal.Decimal, pixKey, description string) (string, error)
}
