package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"mallorder/internal/entities"
	"mallorder/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type WalletService interface {
	Recharge(ctx context.Context, userID int64, amount decimal.Decimal) (entities.Wallet, error)
	Consume(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error)
	Freeze(ctx context.Context, userID int64, amount decimal.Decimal) error
	Unfreeze(ctx context.Context, userID int64, amount decimal.Decimal) error
	Wallet(ctx context.Context, userID int64) (entities.Wallet, error)
	DeleteWallet(ctx context.Context, userID int64) error
}

type WalletHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      WalletService
}

func NewWalletHandler(logger *slog.Logger, svc WalletService) *WalletHandler {
	return &WalletHandler{
		logger:   logger.With(slog.String("handler", "wallet")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *WalletHandler) Init(r chi.Router) {
	r.Route("/wallet", func(r chi.Router) {
		r.Post("/recharge", h.Recharge)
		r.Post("/consume", h.Consume)
		r.Post("/freeze", h.Freeze)
		r.Post("/unfreeze", h.Unfreeze)
		r.Get("/{user_id}", h.Get)
	})

	r.Delete("/admin/wallets/{user_id}", h.Delete)
}

func (h *WalletHandler) Recharge(w http.ResponseWriter, r *http.Request) {
	req, ok := h.amountRequest(w, r)
	if !ok {
		return
	}

	wallet, err := h.svc.Recharge(r.Context(), req.UserID, req.Amount)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	walletRecharges.Inc()
	utils.WriteJSON(w, WalletEntityToJSON(wallet), http.StatusOK)
}

// Consume reports an insufficient balance as success=false, not as an
// error: callers are expected to branch on the flag.
func (h *WalletHandler) Consume(w http.ResponseWriter, r *http.Request) {
	req, ok := h.amountRequest(w, r)
	if !ok {
		return
	}

	success, err := h.svc.Consume(r.Context(), req.UserID, req.Amount)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if !success {
		walletConsumeRejected.Inc()
	}

	utils.WriteJSON(w, ConsumeResponse{Success: success}, http.StatusOK)
}

func (h *WalletHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	req, ok := h.amountRequest(w, r)
	if !ok {
		return
	}

	if err := h.svc.Freeze(r.Context(), req.UserID, req.Amount); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	wallet, err := h.svc.Wallet(r.Context(), req.UserID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	utils.WriteJSON(w, WalletEntityToJSON(wallet), http.StatusOK)
}

func (h *WalletHandler) Unfreeze(w http.ResponseWriter, r *http.Request) {
	req, ok := h.amountRequest(w, r)
	if !ok {
		return
	}

	if err := h.svc.Unfreeze(r.Context(), req.UserID, req.Amount); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	wallet, err := h.svc.Wallet(r.Context(), req.UserID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	utils.WriteJSON(w, WalletEntityToJSON(wallet), http.StatusOK)
}

func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	wallet, err := h.svc.Wallet(r.Context(), userID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	utils.WriteJSON(w, WalletEntityToJSON(wallet), http.StatusOK)
}

func (h *WalletHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteWallet(r.Context(), userID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *WalletHandler) amountRequest(w http.ResponseWriter, r *http.Request) (AmountRequest, bool) {
	var req AmountRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return req, false
	}
	return req, true
}

func (h *WalletHandler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil || id <= 0 {
		utils.WriteError(w, "invalid user id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
