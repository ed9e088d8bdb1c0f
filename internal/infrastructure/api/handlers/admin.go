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
	"github.com/flexipay/wallet-service/internal/usecases/dtos"
	"github.com/flexipay/wallet-service/internal/usecases/interactor"
	"github.com/flexipay/wallet-service/pkg/log"
)

type AdminHandler struct {
	admin  *interactor.AdminInteractor
	profit *interactor.ProfitInteractor
	logger *zerolog.Logger
}

func NewAdminHandler(admin *interactor.AdminInteractor, profit *interactor.ProfitInteractor) *AdminHandler {
	logger := log.GetLogger()
	return &AdminHandler{admin: admin, profit: profit, logger: &logger}
}

func (h *AdminHandler) ListPendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	withdrawals, err := h.admin.PendingWithdrawals(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list pending withdrawals")
		errors.HandleHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withdrawals)
}

func (h *AdminHandler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	txID, err := parseTxID(r)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}

	if err := h.admin.ApproveWithdrawal(r.Context(), txID); err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "completed"})
}

func (h *AdminHandler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	txID, err := parseTxID(r)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}

	var dto dtos.RejectDTO
	// Body is optional; a missing reason is fine.
	json.NewDecoder(r.Body).Decode(&dto)

	if err := h.admin.RejectWithdrawal(r.Context(), txID, dto.Reason); err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "rejected"})
}

func (h *AdminHandler) GetProfit(w http.ResponseWriter, r *http.Request) {
	profit, err := h.profit.RealizedProfit(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to calculate profit")
		errors.HandleHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		RealizedProfit decimal.Decimal `json:"realized_profit"`
	}{RealizedProfit: profit})
}

func (h *AdminHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, http2.UserIDParam), 10, 64)
	if err != nil {
		errors.HandleHTTPError(w, errors.NewBadRequestError(errors.ErrInvalidUserID))
		return
	}

	var dto dtos.SetBalanceDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		errors.HandleHTTPError(w, errors.NewBadRequestError(errors.ErrInvalidRequestBody))
		return
	}

	balance, err := decimal.NewFromString(dto.Balance)
	if err != nil {
		errors.HandleHTTPError(w, errors.NewBadRequestError("invalid balance"))
		return
	}

	if err := h.admin.SetBalance(r.Context(), userID, balance); err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "ok"})
}

func (h *AdminHandler) ListUsersWithBalance(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.UsersWithBalance(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list users with balance")
		errors.HandleHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
