package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mallorder/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

var orderColumns = []string{
	"id", "order_no", "user_id", "total_amount", "discount_amount",
	"delivery_fee", "actual_amount", "status", "payment_status",
	"delivery_address", "contact_name", "contact_phone", "remark",
	"created_at", "updated_at",
}

var orderItemColumns = []string{
	"id", "order_id", "product_id", "product_name", "product_price",
	"quantity", "subtotal", "product_image",
}

func (r *postgresRepo) InsertOrder(ctx context.Context, o entities.Order) (int64, error) {
	query, args := r.qb.Insert("orders").
		Columns(
			"order_no", "user_id", "total_amount", "discount_amount",
			"delivery_fee", "actual_amount", "status", "payment_status",
			"delivery_address", "contact_name", "contact_phone", "remark",
			"created_at", "updated_at",
		).
		Values(
			o.OrderNo, o.UserID, o.TotalAmount, o.DiscountAmount,
			o.DeliveryFee, o.ActualAmount, string(o.Status), string(o.PaymentStatus),
			o.DeliveryAddress, o.ContactName, o.ContactPhone, nullString(o.Remark),
			o.CreatedAt, o.UpdatedAt,
		).
		Suffix("RETURNING id").
		MustSql()

	var id int64
	if err := r.getContext(ctx, &id, query, args...); err != nil {
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}
	return id, nil
}

func (r *postgresRepo) InsertOrderItems(ctx context.Context, orderID int64, items []entities.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	q := r.qb.Insert("order_items").
		Columns("order_id", "product_id", "product_name", "product_price",
			"quantity", "subtotal", "product_image")

	for _, it := range items {
		q = q.Values(
			orderID,
			it.ProductID,
			it.ProductName,
			it.ProductPrice,
			it.Quantity,
			it.Subtotal,
			nullString(it.ProductImage),
		)
	}

	query, args := q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}
	return nil
}

func (r *postgresRepo) OrderByID(ctx context.Context, orderID int64) (entities.Order, error) {
	return r.orderBy(ctx, sq.Eq{"id": orderID}, false)
}

// OrderByIDForUpdate locks the order row for the rest of the
// surrounding transaction, serializing concurrent transitions.
func (r *postgresRepo) OrderByIDForUpdate(ctx context.Context, orderID int64) (entities.Order, error) {
	return r.orderBy(ctx, sq.Eq{"id": orderID}, true)
}

func (r *postgresRepo) OrderByNo(ctx context.Context, orderNo string) (entities.Order, error) {
	return r.orderBy(ctx, sq.Eq{"order_no": orderNo}, false)
}

func (r *postgresRepo) orderBy(ctx context.Context, pred any, forUpdate bool) (entities.Order, error) {
	q := r.qb.Select(orderColumns...).From("orders").Where(pred)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	query, args := q.MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.itemsByOrder(ctx, order.ID)
	if err != nil {
		return entities.Order{}, err
	}

	return OrderToEntity(order, items), nil
}

func (r *postgresRepo) itemsByOrder(ctx context.Context, orderID int64) ([]OrderItem, error) {
	query, args := r.qb.Select(orderItemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("id").
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	return items, nil
}

func (r *postgresRepo) OrdersByUser(ctx context.Context, userID int64) ([]entities.Order, error) {
	return r.ordersBy(ctx, sq.Eq{"user_id": userID})
}

func (r *postgresRepo) OrdersByStatus(ctx context.Context, status entities.OrderStatus) ([]entities.Order, error) {
	return r.ordersBy(ctx, sq.Eq{"status": string(status)})
}

func (r *postgresRepo) ordersBy(ctx context.Context, pred any) ([]entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(pred).
		OrderBy("created_at DESC").
		MustSql()

	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}

	if len(orders) == 0 {
		return []entities.Order{}, nil
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	query, args = r.qb.Select(orderItemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": ids}).
		OrderBy("id").
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select order items: %w", err)
	}
	itemsMap := make(map[int64][]OrderItem, len(ids))
	for _, it := range items {
		itemsMap[it.OrderID] = append(itemsMap[it.OrderID], it)
	}

	result := make([]entities.Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, OrderToEntity(o, itemsMap[o.ID]))
	}
	return result, nil
}

func (r *postgresRepo) UpdateOrderState(ctx context.Context, orderID int64, status entities.OrderStatus, paymentStatus entities.PaymentStatus, remark *string) error {
	q := r.qb.Update("orders").
		Set("status", string(status)).
		Set("payment_status", string(paymentStatus)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": orderID})
	if remark != nil {
		q = q.Set("remark", nullString(*remark))
	}

	query, args := q.MustSql()
	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order state: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update order state: %w", err)
	}
	if rows == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}
