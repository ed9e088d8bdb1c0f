package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/flexipay/wallet-service/internal/errors"
	http2 "github.com/flexipay/wallet-service/internal/infrastructure/api/http"
	"github.com/flexipay/wallet-service/internal/infrastructure/api/middlewares"
	"github.com/flexipay/wallet-service/internal/usecases/dtos"
	"github.com/flexipay/wallet-service/internal/usecases/interactor"
	"github.com/flexipay/wallet-service/pkg/log"
)

type WalletHandler struct {
	payments    *interactor.PaymentInteractor
	withdrawals *interactor.WithdrawalInteractor
	users       *interactor.UserInteractor
	logger      *zerolog.Logger
}

func NewWalletHandler(
	payments *interactor.PaymentInteractor,
	withdrawals *interactor.WithdrawalInteractor,
	users *interactor.UserInteractor,
) *WalletHandler {
	logger := log.GetLogger()
	return &WalletHandler{
		payments:    payments,
		withdrawals: withdrawals,
		users:       users,
		logger:      &logger,
	}
}

func (h *WalletHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	var dto dtos.DepositDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.logger.Error().Err(err).Msg(errors.ErrFailedDecodeRequestBody)
		errors.HandleHTTPError(w, errors.NewBadRequestError(errors.ErrInvalidRequestBody))
		return
	}

	amount, err := decimal.NewFromString(dto.Amount)
	if err != nil {
		errors.HandleHTTPError(w, errors.NewBadRequestError("invalid amount"))
		return
	}

	charge, err := h.payments.CreateDeposit(r.Context(), middlewares.ParseUserID(r), amount)
	if err != nil {
		h.logger.Error().Err(err).Msg(errors.ErrFailedCreateDeposit)
		errors.HandleHTTPError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, charge)
}

func (h *WalletHandler) VerifyDeposit(w http.ResponseWriter, r *http.Request) {
	txID, err := parseTxID(r)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}

	result, err := h.payments.VerifyDeposit(r.Context(), middlewares.ParseUserID(r), txID)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *WalletHandler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var dto dtos.WithdrawalDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.logger.Error().Err(err).Msg(errors.ErrFailedDecodeRequestBody)
		errors.HandleHTTPError(w, errors.NewBadRequestError(errors.ErrInvalidRequestBody))
		return
	}

	amount, err := decimal.NewFromString(dto.Amount)
	if err != nil {
		errors.HandleHTTPError(w, errors.NewBadRequestError("invalid amount"))
		return
	}

	receipt, err := h.withdrawals.Request(r.Context(), middlewares.ParseUserID(r), dto.PixKey, amount)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, receipt)
}

func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.users.GetWallet(r.Context(), middlewares.ParseUserID(r))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get wallet")
		errors.HandleHTTPError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, wallet)
}

func parseTxID(r *http.Request) (int64, error) {
	txID, err := strconv.ParseInt(chi.URLParam(r, http2.TxIDParam), 10, 64)
	if err != nil {
		return 0, errors.NewBadRequestError("invalid transaction id")
	}
	return txID, nil
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
