package interactor

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/flexipay/wallet-service/internal/config"
)

// FeePolicy is the fee schedule parsed once at startup. All arithmetic on
// amounts uses exact decimals; results are rounded half-up to two places.
type FeePolicy struct {
	DepositRate     decimal.Decimal
	WithdrawFixed   decimal.Decimal
	WithdrawPercent decimal.Decimal
	MinWithdrawNet  decimal.Decimal
	DepositMin      decimal.Decimal
	DepositMax      decimal.Decimal
}

func NewFeePolicy(cfg config.Fees) (FeePolicy, error) {
	var p FeePolicy
	var err error

	fields := []struct {
		dst   *decimal.Decimal
		name  string
		value string
	}{
		{&p.DepositRate, "DEPOSIT_FEE_RATE", cfg.DepositRate},
		{&p.WithdrawFixed, "WITHDRAW_FIXED_FEE", cfg.WithdrawFixed},
		{&p.WithdrawPercent, "WITHDRAW_PERCENT_FEE", cfg.WithdrawPercent},
		{&p.MinWithdrawNet, "MIN_WITHDRAW_NET", cfg.MinWithdrawNet},
		{&p.DepositMin, "DEPOSIT_MIN", cfg.DepositMin},
		{&p.DepositMax, "DEPOSIT_MAX", cfg.DepositMax},
	}
	for _, f := range fields {
		if *f.dst, err = decimal.NewFromString(f.value); err != nil {
			return FeePolicy{}, fmt.Errorf("parse %s %q: %w", f.name, f.value, err)
		}
	}

	return p, nil
}

// DepositFee returns the fee withheld from a deposit, rounded half-up.
func (p FeePolicy) DepositFee(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(p.DepositRate).Round(2)
}

// WithdrawalNet returns the net payable amount for a gross debit:
// net = round((gross - fixed) / (1 + percent), 2). The fee is the remainder,
// so gross is always exactly net + fee.
func (p FeePolicy) WithdrawalNet(gross decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	return gross.Sub(p.WithdrawFixed).Div(one.Add(p.WithdrawPercent)).Round(2)
}
