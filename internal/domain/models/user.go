package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a wallet holder. The id is the stable identity supplied by the
// front-end; users are created lazily on first interaction and never deleted.
type User struct {
	ID        int64           `json:"id"`
	Username  string          `json:"username,omitempty"`
	FirstName string          `json:"first_name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}
