package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mallorder/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

var productColumns = []string{
	"id", "name", "price", "image_url", "stock", "sales", "status",
}

func (r *postgresRepo) ProductByID(ctx context.Context, productID int64) (entities.Product, error) {
	return r.productBy(ctx, productID, false)
}

// ProductByIDForUpdate locks the product row so the stock read stays
// valid until the surrounding transaction decrements it.
func (r *postgresRepo) ProductByIDForUpdate(ctx context.Context, productID int64) (entities.Product, error) {
	return r.productBy(ctx, productID, true)
}

func (r *postgresRepo) productBy(ctx context.Context, productID int64, forUpdate bool) (entities.Product, error) {
	q := r.qb.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": productID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	query, args := q.MustSql()

	var product Product
	err := r.getContext(ctx, &product, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Product{}, entities.ErrProductNotFound
	}
	if err != nil {
		return entities.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	return ProductToEntity(product), nil
}

// DecrementStock subtracts qty from stock and adds it to the sales
// counter. The stock guard is part of the statement, so a concurrent
// decrement cannot oversell.
func (r *postgresRepo) DecrementStock(ctx context.Context, productID int64, qty int32) error {
	query, args := r.qb.Update("products").
		Set("stock", sq.Expr("stock - ?", qty)).
		Set("sales", sq.Expr("sales + ?", qty)).
		Where(sq.Eq{"id": productID}).
		Where(sq.Expr("stock >= ?", qty)).
		MustSql()

	rows, err := r.execRows(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if rows == 0 {
		return entities.ErrInsufficientStock
	}
	return nil
}

// RestoreStock puts qty back. A missing product is tolerated: the
// inventory row may have been deleted after the order was placed.
func (r *postgresRepo) RestoreStock(ctx context.Context, productID int64, qty int32) error {
	query, args := r.qb.Update("products").
		Set("stock", sq.Expr("stock + ?", qty)).
		Where(sq.Eq{"id": productID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	return nil
}
