package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mallorder/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

var cartColumns = []string{"id", "user_id", "product_id", "quantity"}

func (r *postgresRepo) CartByUser(ctx context.Context, userID int64) ([]entities.CartItem, error) {
	query, args := r.qb.Select(cartColumns...).
		From("cart_items").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id").
		MustSql()

	var items []CartItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select cart items: %w", err)
	}

	result := make([]entities.CartItem, 0, len(items))
	for _, it := range items {
		result = append(result, CartItemToEntity(it))
	}
	return result, nil
}

func (r *postgresRepo) CartItemByProduct(ctx context.Context, userID, productID int64) (entities.CartItem, error) {
	query, args := r.qb.Select(cartColumns...).
		From("cart_items").
		Where(sq.Eq{"user_id": userID, "product_id": productID}).
		MustSql()

	var item CartItem
	err := r.getContext(ctx, &item, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.CartItem{}, entities.ErrCartItemNotFound
	}
	if err != nil {
		return entities.CartItem{}, fmt.Errorf("failed to get cart item: %w", err)
	}
	return CartItemToEntity(item), nil
}

// UpsertCartItem adds qty to an existing line or creates a new one.
func (r *postgresRepo) UpsertCartItem(ctx context.Context, userID, productID int64, qty int32) error {
	query, args := r.qb.Insert("cart_items").
		Columns("user_id", "product_id", "quantity").
		Values(userID, productID, qty).
		Suffix("ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity").
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

func (r *postgresRepo) SetCartQuantity(ctx context.Context, userID, productID int64, qty int32) error {
	query, args := r.qb.Update("cart_items").
		Set("quantity", qty).
		Where(sq.Eq{"user_id": userID, "product_id": productID}).
		MustSql()

	rows, err := r.execRows(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set cart quantity: %w", err)
	}
	if rows == 0 {
		return entities.ErrCartItemNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteCartItem(ctx context.Context, userID, productID int64) error {
	query, args := r.qb.Delete("cart_items").
		Where(sq.Eq{"user_id": userID, "product_id": productID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

func (r *postgresRepo) ClearCart(ctx context.Context, userID int64) error {
	query, args := r.qb.Delete("cart_items").
		Where(sq.Eq{"user_id": userID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
