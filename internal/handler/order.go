package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"mallorder/internal/entities"
	"mallorder/internal/service"
	"mallorder/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type OrderService interface {
	CreateOrder(ctx context.Context, in service.CreateOrderInput) (entities.Order, error)
	PayOrder(ctx context.Context, orderID int64) (entities.Order, error)
	CancelOrder(ctx context.Context, orderID, userID int64) (entities.Order, error)
	ConfirmOrder(ctx context.Context, orderID int64) (entities.Order, error)
	RejectOrder(ctx context.Context, orderID int64, reason string) (entities.Order, error)
	StartDelivery(ctx context.Context, orderID int64) (entities.Order, error)
	DeliverOrder(ctx context.Context, orderID int64) (entities.Order, error)
	CompleteOrder(ctx context.Context, orderID int64) (entities.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status entities.OrderStatus) (entities.Order, error)
	ReorderItems(ctx context.Context, orderID, userID int64) (int, error)
	GetOrderByNo(ctx context.Context, orderNo string) (entities.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]entities.Order, error)
	ListOrdersByStatus(ctx context.Context, status entities.OrderStatus) ([]entities.Order, error)
}

type OrderHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

func NewOrderHandler(logger *slog.Logger, svc OrderService) *OrderHandler {
	return &OrderHandler{
		logger:   logger.With(slog.String("handler", "order")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *OrderHandler) Init(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.ListByUser)
		r.Get("/{order_no}", h.GetByNo)
		r.Post("/{order_id}/pay", h.Pay)
		r.Post("/{order_id}/cancel", h.Cancel)
		r.Post("/{order_id}/complete", h.Complete)
		r.Post("/{order_id}/reorder", h.Reorder)
	})

	r.Route("/merchant/orders", func(r chi.Router) {
		r.Post("/{order_id}/confirm", h.Confirm)
		r.Post("/{order_id}/reject", h.Reject)
		r.Post("/{order_id}/delivery", h.StartDelivery)
		r.Post("/{order_id}/delivered", h.Delivered)
	})

	r.Route("/admin/orders", func(r chi.Router) {
		r.Get("/", h.ListByStatus)
		r.Patch("/{order_id}/status", h.UpdateStatus)
	})
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.CreateOrder(r.Context(), service.CreateOrderInput{
		UserID:          req.UserID,
		Remark:          req.Remark,
		DeliveryAddress: req.DeliveryAddress,
		ContactName:     req.ContactName,
		ContactPhone:    req.ContactPhone,
		DistanceKm:      req.DistanceKm,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	ordersCreated.Inc()
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusCreated)
}

func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	order, err := h.svc.PayOrder(r.Context(), orderID)
	observeTransition("pay", err)
	if err != nil {
		paymentsFailed.Inc()
		writeDomainError(w, h.logger, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req UserRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.CancelOrder(r.Context(), orderID, req.UserID)
	observeTransition("cancel", err)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, "confirm", h.svc.ConfirmOrder)
}

func (h *OrderHandler) Reject(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req RejectOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	order, err := h.svc.RejectOrder(r.Context(), orderID, req.Reason)
	observeTransition("reject", err)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *OrderHandler) StartDelivery(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, "start_delivery", h.svc.StartDelivery)
}

func (h *OrderHandler) Delivered(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, "deliver", h.svc.DeliverOrder)
}

func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, "complete", h.svc.CompleteOrder)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.UpdateOrderStatus(r.Context(), orderID, entities.OrderStatus(req.Status))
	observeTransition("admin_update", err)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *OrderHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req UserRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	added, err := h.svc.ReorderItems(r.Context(), orderID, req.UserID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	utils.WriteJSON(w, ReorderResponse{Added: added}, http.StatusOK)
}

func (h *OrderHandler) GetByNo(w http.ResponseWriter, r *http.Request) {
	orderNo := chi.URLParam(r, "order_no")
	if err := h.validate.Var(orderNo, "required"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.GetOrderByNo(r.Context(), orderNo)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *OrderHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		utils.WriteError(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	orders, err := h.svc.ListOrdersByUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	utils.WriteJSON(w, OrdersEntityToJSON(orders), http.StatusOK)
}

func (h *OrderHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = string(entities.OrderStatusPending)
	}

	orders, err := h.svc.ListOrdersByStatus(r.Context(), entities.OrderStatus(status))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	utils.WriteJSON(w, OrdersEntityToJSON(orders), http.StatusOK)
}

func (h *OrderHandler) simpleTransition(w http.ResponseWriter, r *http.Request, name string, fn func(ctx context.Context, orderID int64) (entities.Order, error)) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	order, err := fn(r.Context(), orderID)
	observeTransition(name, err)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *OrderHandler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "order_id"), 10, 64)
	if err != nil || id <= 0 {
		utils.WriteError(w, "invalid order id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
