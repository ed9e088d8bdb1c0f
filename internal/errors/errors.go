package errors

import (
	"errors"
	"fmt"
)

const (
	ErrorFailedToConnectToTheDatabase = "Failed to connect to the database"
	ErrorFailedToRunMigrations        = "Failed to run database migrations"
	ErrorFailedToRunTheServer         = "Failed to run the server"
	ErrorFailedToShutdownTheServer    = "Failed to shutdown the server"
	ErrFailedDecodeRequestBody        = "Failed to decode request body"
	ErrInvalidRequestBody             = "Invalid request body"
	ErrFailedCreateDeposit            = "Failed to create deposit"
	ErrFailedConfirmDeposit           = "Failed to confirm deposit"
	ErrFailedRequestWithdrawal        = "Failed to request withdrawal"
	ErrFailedReconcileCycle           = "Reconcile cycle failed"
	ErrUserIDRequired                 = "User ID is required"
	ErrInvalidUserID                  = "Invalid User ID"
	ErrAdminTokenRequired             = "Admin token is missing or invalid"
)

type BadRequestError struct {
	Message string
}

func NewBadRequestError(message string) *BadRequestError {
	return &BadRequestError{Message: message}
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("Bad request: %s", e.Message)
}

// InsufficientFundsError signals a debit that would leave the balance
// negative. It is a user-facing rejection, not a system fault.
type InsufficientFundsError struct{}

func NewInsufficientFundsError() *InsufficientFundsError {
	return &InsufficientFundsError{}
}

func (e *InsufficientFundsError) Error() string {
	return "insufficient funds"
}

// AlreadyProcessedError signals that a transaction is past the status the
// caller expected, typically because a racing confirmation path won.
type AlreadyProcessedError struct {
	TxID int64
}

func NewAlreadyProcessedError(txID int64) *AlreadyProcessedError {
	return &AlreadyProcessedError{TxID: txID}
}

func (e *AlreadyProcessedError) Error() string {
	return fmt.Sprintf("transaction %d already processed", e.TxID)
}

// BelowMinimumError signals a withdrawal whose net payable amount falls short
// of the configured minimum.
type BelowMinimumError struct {
	Minimum string
}

func NewBelowMinimumError(minimum string) *BelowMinimumError {
	return &BelowMinimumError{Minimum: minimum}
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("net amount below the minimum of %s", e.Minimum)
}

type NotFoundError struct {
	Message string
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// GatewayError wraps a failed or ambiguous gateway response. Callers treat it
// the same as "not approved".
type GatewayError struct {
	Err error
}

func NewGatewayError(err error) *GatewayError {
	return &GatewayError{Err: err}
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway: %v", e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
