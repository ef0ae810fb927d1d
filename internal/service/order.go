package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mallorder/internal/entities"
	"mallorder/internal/events"
	"mallorder/pkg/trm"

	"github.com/shopspring/decimal"
)

type OrderRepo interface {
	InsertOrder(ctx context.Context, o entities.Order) (int64, error)
	InsertOrderItems(ctx context.Context, orderID int64, items []entities.OrderItem) error

	OrderByID(ctx context.Context, orderID int64) (entities.Order, error)
	// OrderByIDForUpdate must lock the order row until the surrounding
	// transaction ends, so concurrent transitions on the same order are
	// serialized and the loser observes the committed state.
	OrderByIDForUpdate(ctx context.Context, orderID int64) (entities.Order, error)
	OrderByNo(ctx context.Context, orderNo string) (entities.Order, error)
	OrdersByUser(ctx context.Context, userID int64) ([]entities.Order, error)
	OrdersByStatus(ctx context.Context, status entities.OrderStatus) ([]entities.Order, error)

	UpdateOrderState(ctx context.Context, orderID int64, status entities.OrderStatus, paymentStatus entities.PaymentStatus, remark *string) error
}

type ProductRepo interface {
	ProductByID(ctx context.Context, productID int64) (entities.Product, error)
	ProductByIDForUpdate(ctx context.Context, productID int64) (entities.Product, error)
	DecrementStock(ctx context.Context, productID int64, qty int32) error
	RestoreStock(ctx context.Context, productID int64, qty int32) error
}

type CartRepo interface {
	CartByUser(ctx context.Context, userID int64) ([]entities.CartItem, error)
	UpsertCartItem(ctx context.Context, userID, productID int64, qty int32) error
	ClearCart(ctx context.Context, userID int64) error
}

// WalletLedger is the slice of the wallet service the order lifecycle
// needs: charging on pay and crediting back on cancel/reject.
type WalletLedger interface {
	Consume(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error)
	Refund(ctx context.Context, userID int64, amount decimal.Decimal) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.OrderEvent) error
}

type OrderCache interface {
	Get(key string) (entities.Order, bool)
	Set(key string, order entities.Order)
	Delete(key string)
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	orders    OrderRepo
	products  ProductRepo
	carts     CartRepo
	wallet    WalletLedger
	publisher EventPublisher
	cache     OrderCache
}

func NewOrderService(
	logger *slog.Logger,
	txManager trm.Manager,
	orders OrderRepo,
	products ProductRepo,
	carts CartRepo,
	wallet WalletLedger,
	publisher EventPublisher,
	cache OrderCache,
) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		orders:    orders,
		products:  products,
		carts:     carts,
		wallet:    wallet,
		publisher: publisher,
		cache:     cache,
	}
}

type CreateOrderInput struct {
	UserID          int64
	Remark          string
	DeliveryAddress string
	ContactName     string
	ContactPhone    string
	// DistanceKm feeds the per-kilometre part of the delivery fee when known.
	DistanceKm *float64
}

// CreateOrder snapshots the user's cart into an order. Product data is
// re-read at this moment, stock is decremented per line and the cart is
// cleared, all in one transaction: a stock shortage on any line aborts
// the whole creation.
func (s *orderService) CreateOrder(ctx context.Context, in CreateOrderInput) (entities.Order, error) {
	if strings.TrimSpace(in.DeliveryAddress) == "" {
		return entities.Order{}, fmt.Errorf("%w: delivery address is required", entities.ErrValidation)
	}
	if strings.TrimSpace(in.ContactName) == "" {
		return entities.Order{}, fmt.Errorf("%w: contact name is required", entities.ErrValidation)
	}
	if strings.TrimSpace(in.ContactPhone) == "" {
		return entities.Order{}, fmt.Errorf("%w: contact phone is required", entities.ErrValidation)
	}

	now := time.Now()
	order := entities.Order{
		OrderNo:         generateOrderNo(),
		UserID:          in.UserID,
		DiscountAmount:  decimal.Zero,
		Status:          entities.OrderStatusPending,
		PaymentStatus:   entities.PaymentStatusUnpaid,
		DeliveryAddress: in.DeliveryAddress,
		ContactName:     in.ContactName,
		ContactPhone:    in.ContactPhone,
		Remark:          in.Remark,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		cart, err := s.carts.CartByUser(ctx, in.UserID)
		if err != nil {
			return err
		}
		if len(cart) == 0 {
			return entities.ErrCartEmpty
		}

		total := decimal.Zero
		items := make([]entities.OrderItem, 0, len(cart))
		for _, line := range cart {
			product, err := s.products.ProductByIDForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if product.Stock < line.Quantity {
				return fmt.Errorf("product %q: %w", product.Name, entities.ErrInsufficientStock)
			}

			subtotal := product.Price.Mul(decimal.NewFromInt32(line.Quantity))
			items = append(items, entities.OrderItem{
				ProductID:    product.ID,
				ProductName:  product.Name,
				ProductPrice: product.Price,
				Quantity:     line.Quantity,
				Subtotal:     subtotal,
				ProductImage: product.ImageURL,
			})
			total = total.Add(subtotal)

			if err := s.products.DecrementStock(ctx, product.ID, line.Quantity); err != nil {
				return err
			}
		}

		order.TotalAmount = total
		order.DeliveryFee = CalculateDeliveryFee(total, in.DistanceKm)
		order.ActualAmount = total.Add(order.DeliveryFee).Sub(order.DiscountAmount)

		id, err := s.orders.InsertOrder(ctx, order)
		if err != nil {
			return err
		}
		if err := s.orders.InsertOrderItems(ctx, id, items); err != nil {
			return err
		}
		if err := s.carts.ClearCart(ctx, in.UserID); err != nil {
			return err
		}

		order.ID = id
		for i := range items {
			items[i].OrderID = id
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.logger.Info("order created",
		slog.String("order_no", order.OrderNo),
		slog.Int64("user_id", order.UserID),
		slog.String("actual_amount", order.ActualAmount.String()),
	)
	s.publish(ctx, "order.created", order)
	return order, nil
}

// PayOrder charges the owner's wallet with the order's actual amount.
// Of two concurrent calls exactly one wins: the order row is locked
// before the status check, so the loser sees status != pending.
func (s *orderService) PayOrder(ctx context.Context, orderID int64) (entities.Order, error) {
	var order entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.OrderByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != entities.OrderStatusPending {
			return entities.NewStateError(order.Status, entities.OrderStatusPending)
		}

		ok, err := s.wallet.Consume(ctx, order.UserID, order.ActualAmount)
		if err != nil {
			return err
		}
		if !ok {
			return entities.ErrInsufficientBalance
		}

		order.Status = entities.OrderStatusPaid
		order.PaymentStatus = entities.PaymentStatusPaid
		return s.orders.UpdateOrderState(ctx, orderID, order.Status, order.PaymentStatus, nil)
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.logger.Info("order paid", slog.String("order_no", order.OrderNo), slog.Int64("user_id", order.UserID))
	s.publish(ctx, "order.paid", order)
	return order, nil
}

// CancelOrder is the user-facing cancellation: only the owner may
// cancel, and only pending or confirmed orders. A paid order is
// refunded in full and every line's stock is restored.
func (s *orderService) CancelOrder(ctx context.Context, orderID, userID int64) (entities.Order, error) {
	var order entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.OrderByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return entities.ErrNotOrderOwner
		}
		if order.Status != entities.OrderStatusPending && order.Status != entities.OrderStatusConfirmed {
			return entities.NewStateError(order.Status, entities.OrderStatusPending, entities.OrderStatusConfirmed)
		}

		if order.PaymentStatus == entities.PaymentStatusPaid {
			if err := s.wallet.Refund(ctx, order.UserID, order.ActualAmount); err != nil {
				return err
			}
			order.PaymentStatus = entities.PaymentStatusRefunded
		}

		order.Status = entities.OrderStatusCancelled
		if err := s.orders.UpdateOrderState(ctx, orderID, order.Status, order.PaymentStatus, nil); err != nil {
			return err
		}
		return s.restoreStock(ctx, order)
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.logger.Info("order cancelled", slog.String("order_no", order.OrderNo), slog.Int64("user_id", userID))
	s.publish(ctx, "order.cancelled", order)
	return order, nil
}

// ConfirmOrder is the merchant accepting an order. Only paid orders can
// be confirmed, whatever the status says.
func (s *orderService) ConfirmOrder(ctx context.Context, orderID int64) (entities.Order, error) {
	var order entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.OrderByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != entities.OrderStatusPending && order.Status != entities.OrderStatusPaid {
			return entities.NewStateError(order.Status, entities.OrderStatusPending, entities.OrderStatusPaid)
		}
		if order.PaymentStatus != entities.PaymentStatusPaid {
			return fmt.Errorf("%w: order is not paid", entities.ErrPrecondition)
		}

		order.Status = entities.OrderStatusConfirmed
		return s.orders.UpdateOrderState(ctx, orderID, order.Status, order.PaymentStatus, nil)
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.publish(ctx, "order.confirmed", order)
	return order, nil
}

// RejectOrder is the merchant declining an order. Allowed from any
// non-terminal status; a paid order is refunded and stock restored.
// The optional reason is recorded in the remark.
func (s *orderService) RejectOrder(ctx context.Context, orderID int64, reason string) (entities.Order, error) {
	var order entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.OrderByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status.Terminal() {
			return entities.NewStateError(order.Status,
				entities.OrderStatusPending, entities.OrderStatusPaid,
				entities.OrderStatusConfirmed, entities.OrderStatusPreparing,
				entities.OrderStatusDelivering, entities.OrderStatusDelivered)
		}

		if order.PaymentStatus == entities.PaymentStatusPaid {
			if err := s.wallet.Refund(ctx, order.UserID, order.ActualAmount); err != nil {
				return err
			}
			order.PaymentStatus = entities.PaymentStatusRefunded
		}

		order.Status = entities.OrderStatusRejected
		var remark *string
		if strings.TrimSpace(reason) != "" {
			r := "rejection reason: " + reason
			order.Remark = r
			remark = &r
		}
		if err := s.orders.UpdateOrderState(ctx, orderID, order.Status, order.PaymentStatus, remark); err != nil {
			return err
		}
		return s.restoreStock(ctx, order)
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.logger.Info("order rejected", slog.String("order_no", order.OrderNo), slog.String("reason", reason))
	s.publish(ctx, "order.rejected", order)
	return order, nil
}

func (s *orderService) StartDelivery(ctx context.Context, orderID int64) (entities.Order, error) {
	return s.transition(ctx, orderID, "order.delivering", entities.OrderStatusDelivering,
		entities.OrderStatusConfirmed, entities.OrderStatusPreparing)
}

func (s *orderService) DeliverOrder(ctx context.Context, orderID int64) (entities.Order, error) {
	return s.transition(ctx, orderID, "order.delivered", entities.OrderStatusDelivered,
		entities.OrderStatusDelivering)
}

func (s *orderService) CompleteOrder(ctx context.Context, orderID int64) (entities.Order, error) {
	return s.transition(ctx, orderID, "order.completed", entities.OrderStatusCompleted,
		entities.OrderStatusDelivered)
}

// transition performs a plain status move with no financial side effects.
func (s *orderService) transition(ctx context.Context, orderID int64, eventKind string, to entities.OrderStatus, from ...entities.OrderStatus) (entities.Order, error) {
	var order entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.OrderByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		allowed := false
		for _, st := range from {
			if order.Status == st {
				allowed = true
				break
			}
		}
		if !allowed {
			return entities.NewStateError(order.Status, from...)
		}

		order.Status = to
		return s.orders.UpdateOrderState(ctx, orderID, to, order.PaymentStatus, nil)
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.publish(ctx, eventKind, order)
	return order, nil
}

// UpdateOrderStatus overwrites the status directly, bypassing the
// guarded transitions. Administrative tooling only; cancelling this way
// still restores stock.
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID int64, status entities.OrderStatus) (entities.Order, error) {
	if !status.Valid() {
		return entities.Order{}, fmt.Errorf("%w: unknown order status %q", entities.ErrValidation, status)
	}

	var order entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.OrderByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		order.Status = status
		if err := s.orders.UpdateOrderState(ctx, orderID, status, order.PaymentStatus, nil); err != nil {
			return err
		}
		if status == entities.OrderStatusCancelled {
			return s.restoreStock(ctx, order)
		}
		return nil
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.cache.Delete(order.OrderNo)
	s.logger.Info("order status overwritten", slog.String("order_no", order.OrderNo), slog.String("status", string(status)))
	s.publish(ctx, "order.status_updated", order)
	return order, nil
}

// ReorderItems puts a past order's items back into the user's cart.
// Lines whose product is gone, off sale or short on stock are skipped.
// Returns the number of lines added.
func (s *orderService) ReorderItems(ctx context.Context, orderID, userID int64) (int, error) {
	added := 0
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		order, err := s.orders.OrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return entities.ErrNotOrderOwner
		}

		for _, item := range order.Items {
			product, err := s.products.ProductByID(ctx, item.ProductID)
			if errors.Is(err, entities.ErrProductNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if !product.Available() || product.Stock < item.Quantity {
				continue
			}

			if err := s.carts.UpsertCartItem(ctx, userID, item.ProductID, item.Quantity); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, orderID int64) (entities.Order, error) {
	return s.orders.OrderByID(ctx, orderID)
}

// GetOrderByNo serves terminal orders from the cache; they can no
// longer change through guarded transitions.
func (s *orderService) GetOrderByNo(ctx context.Context, orderNo string) (entities.Order, error) {
	if order, ok := s.cache.Get(orderNo); ok {
		return order, nil
	}

	order, err := s.orders.OrderByNo(ctx, orderNo)
	if err != nil {
		return entities.Order{}, err
	}
	if order.Status.Terminal() {
		s.cache.Set(orderNo, order)
	}
	return order, nil
}

func (s *orderService) ListOrdersByUser(ctx context.Context, userID int64) ([]entities.Order, error) {
	return s.orders.OrdersByUser(ctx, userID)
}

func (s *orderService) ListOrdersByStatus(ctx context.Context, status entities.OrderStatus) ([]entities.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", entities.ErrValidation, status)
	}
	return s.orders.OrdersByStatus(ctx, status)
}

func (s *orderService) restoreStock(ctx context.Context, order entities.Order) error {
	for _, item := range order.Items {
		if err := s.products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// publish emits a lifecycle event after the transaction committed.
// Delivery is best effort: a broker outage must not fail the request.
func (s *orderService) publish(ctx context.Context, kind string, order entities.Order) {
	event := events.OrderEvent{
		Kind:          kind,
		OrderNo:       order.OrderNo,
		UserID:        order.UserID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		ActualAmount:  order.ActualAmount,
		OccurredAt:    time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish order event",
			slog.String("kind", kind),
			slog.String("order_no", order.OrderNo),
			slog.Any("error", err),
		)
	}
}

// generateOrderNo builds a globally unique order number without a
// uniqueness-checking read: creation time plus a random suffix.
func generateOrderNo() string {
	suffix := make([]byte, 4)
	rand.Read(suffix)
	return fmt.Sprintf("ORD%d%s", time.Now().UnixMilli(), strings.ToUpper(hex.EncodeToString(suffix)))
}
