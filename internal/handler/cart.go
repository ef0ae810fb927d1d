package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"mallorder/internal/service"
	"mallorder/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type CartService interface {
	AddToCart(ctx context.Context, userID, productID int64, qty int32) error
	UpdateQuantity(ctx context.Context, userID, productID int64, qty int32) error
	RemoveFromCart(ctx context.Context, userID, productID int64) error
	ClearCart(ctx context.Context, userID int64) error
	GetCart(ctx context.Context, userID int64) ([]service.CartLine, error)
}

type CartHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      CartService
}

func NewCartHandler(logger *slog.Logger, svc CartService) *CartHandler {
	return &CartHandler{
		logger:   logger.With(slog.String("handler", "cart")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *CartHandler) Init(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Post("/", h.Add)
		r.Patch("/", h.Update)
		r.Get("/{user_id}", h.Get)
		r.Delete("/{user_id}", h.Clear)
		r.Delete("/{user_id}/{product_id}", h.Remove)
	})
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	req, ok := h.itemRequest(w, r)
	if !ok {
		return
	}

	if err := h.svc.AddToCart(r.Context(), req.UserID, req.ProductID, req.Quantity); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := h.itemRequest(w, r)
	if !ok {
		return
	}

	if err := h.svc.UpdateQuantity(r.Context(), req.UserID, req.ProductID, req.Quantity); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "user_id")
	if !ok {
		return
	}

	lines, err := h.svc.GetCart(r.Context(), userID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	utils.WriteJSON(w, CartLinesToJSON(lines), http.StatusOK)
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "user_id")
	if !ok {
		return
	}
	productID, ok := h.pathID(w, r, "product_id")
	if !ok {
		return
	}

	if err := h.svc.RemoveFromCart(r.Context(), userID, productID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "user_id")
	if !ok {
		return
	}

	if err := h.svc.ClearCart(r.Context(), userID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) itemRequest(w http.ResponseWriter, r *http.Request) (CartItemRequest, bool) {
	var req CartItemRequest
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

func (h *CartHandler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		utils.WriteError(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
