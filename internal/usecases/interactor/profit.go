package interactor

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/flexipay/wallet-service/internal/domain/repositories"
)

// ProfitInteractor aggregates realized fees. Deposit fees always count (they
// are only ever recorded on success); withdrawal fees count only once the
// withdrawal itself reaches COMPLETED.
type ProfitInteractor struct {
	transactions repositories.TransactionRepository
}

func NewProfitInteractor(transactions repositories.TransactionRepository) *ProfitInteractor {
	return &ProfitInteractor{transactions: transactions}
}

func (p *ProfitInteractor) RealizedProfit(ctx context.Context) (decimal.Decimal, error) {
	return p.transactions.RealizedProfit(ctx)
}
