package dtos

// DepositDTO is the request body for creating a deposit charge. Amount is a
// decimal string to keep exact fixed-point semantics on the wire.
type DepositDTO struct {
	Amount string `json:"amount"`
}

// WithdrawalDTO is the request body for a withdrawal: the pix key to pay out
// to and the gross amount to debit.
type WithdrawalDTO struct {
	PixKey string `json:"pix_key"`
	Amount string `json:"amount"`
}

// SetBalanceDTO is the admin request body for overwriting a user's balance.
type SetBalanceDTO struct {
	Balance string `json:"balance"`
}

// RejectDTO optionally carries the reason recorded on a rejected withdrawal.
type RejectDTO struct {
	Reason string `json:"reason"`
}
