package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mallorder/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
)

var walletColumns = []string{
	"id", "user_id", "balance", "frozen_balance",
	"total_recharge", "total_consumption", "created_at", "updated_at",
}

// EnsureWallet creates the user's wallet row if it does not exist yet.
// The upsert makes lazy creation safe under concurrent first-time
// operations for the same user.
func (r *postgresRepo) EnsureWallet(ctx context.Context, userID int64) error {
	query, args := r.qb.Insert("wallets").
		Columns("user_id").
		Values(userID).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to ensure wallet: %w", err)
	}
	return nil
}

func (r *postgresRepo) WalletByUser(ctx context.Context, userID int64) (entities.Wallet, error) {
	query, args := r.qb.Select(walletColumns...).
		From("wallets").
		Where(sq.Eq{"user_id": userID}).
		MustSql()

	var wallet Wallet
	err := r.getContext(ctx, &wallet, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Wallet{}, entities.ErrWalletNotFound
	}
	if err != nil {
		return entities.Wallet{}, fmt.Errorf("failed to get wallet: %w", err)
	}
	return WalletToEntity(wallet), nil
}

func (r *postgresRepo) Deposit(ctx context.Context, userID int64, amount decimal.Decimal) error {
	query, args := r.qb.Update("wallets").
		Set("balance", sq.Expr("balance + ?", amount)).
		Set("total_recharge", sq.Expr("total_recharge + ?", amount)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"user_id": userID}).
		MustSql()

	rows, err := r.execRows(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to deposit: %w", err)
	}
	if rows == 0 {
		return entities.ErrWalletNotFound
	}
	return nil
}

// TryConsume debits the balance only when it covers the amount. The
// guard and the debit are a single statement, so concurrent consumers
// of the same wallet cannot drive the balance negative.
func (r *postgresRepo) TryConsume(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	query, args := r.qb.Update("wallets").
		Set("balance", sq.Expr("balance - ?", amount)).
		Set("total_consumption", sq.Expr("total_consumption + ?", amount)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Expr("balance >= ?", amount)).
		MustSql()

	rows, err := r.execRows(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to consume: %w", err)
	}
	return rows > 0, nil
}

func (r *postgresRepo) FreezeFunds(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	query, args := r.qb.Update("wallets").
		Set("balance", sq.Expr("balance - ?", amount)).
		Set("frozen_balance", sq.Expr("frozen_balance + ?", amount)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Expr("balance >= ?", amount)).
		MustSql()

	rows, err := r.execRows(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to freeze funds: %w", err)
	}
	return rows > 0, nil
}

func (r *postgresRepo) UnfreezeFunds(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	query, args := r.qb.Update("wallets").
		Set("frozen_balance", sq.Expr("frozen_balance - ?", amount)).
		Set("balance", sq.Expr("balance + ?", amount)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Expr("frozen_balance >= ?", amount)).
		MustSql()

	rows, err := r.execRows(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to unfreeze funds: %w", err)
	}
	return rows > 0, nil
}

func (r *postgresRepo) DeleteWallet(ctx context.Context, userID int64) error {
	query, args := r.qb.Delete("wallets").
		Where(sq.Eq{"user_id": userID}).
		MustSql()

	rows, err := r.execRows(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete wallet: %w", err)
	}
	if rows == 0 {
		return entities.ErrWalletNotFound
	}
	return nil
}

func (r *postgresRepo) execRows(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
