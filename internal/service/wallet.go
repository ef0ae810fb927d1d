package service

import (
	"context"
	"fmt"
	"log/slog"

	"mallorder/internal/entities"
	"mallorder/pkg/trm"

	"github.com/shopspring/decimal"
)

type WalletRepo interface {
	// EnsureWallet lazily creates the wallet row; must be an upsert so
	// that concurrent first-time operations do not race.
	EnsureWallet(ctx context.Context, userID int64) error
	WalletByUser(ctx context.Context, userID int64) (entities.Wallet, error)

	Deposit(ctx context.Context, userID int64, amount decimal.Decimal) error
	TryConsume(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error)
	FreezeFunds(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error)
	UnfreezeFunds(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error)
	DeleteWallet(ctx context.Context, userID int64) error
}

type walletService struct {
	logger        *slog.Logger
	txManager     trm.Manager
	repo          WalletRepo
	rechargeLimit decimal.Decimal
}

func NewWalletService(logger *slog.Logger, txManager trm.Manager, repo WalletRepo, rechargeLimit decimal.Decimal) *walletService {
	return &walletService{
		logger:        logger.With(slog.String("service", "wallet")),
		txManager:     txManager,
		repo:          repo,
		rechargeLimit: rechargeLimit,
	}
}

// Recharge credits the balance. A single recharge may not exceed the
// configured limit.
func (s *walletService) Recharge(ctx context.Context, userID int64, amount decimal.Decimal) (entities.Wallet, error) {
	if !amount.IsPositive() {
		return entities.Wallet{}, entities.ErrInvalidAmount
	}
	if amount.GreaterThan(s.rechargeLimit) {
		return entities.Wallet{}, entities.ErrRechargeLimit
	}

	var wallet entities.Wallet
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.repo.EnsureWallet(ctx, userID); err != nil {
			return err
		}
		if err := s.repo.Deposit(ctx, userID, amount); err != nil {
			return err
		}
		var err error
		wallet, err = s.repo.WalletByUser(ctx, userID)
		return err
	})
	if err != nil {
		return entities.Wallet{}, fmt.Errorf("failed to recharge: %w", err)
	}

	s.logger.Info("wallet recharged", slog.Int64("user_id", userID), slog.String("amount", amount.String()))
	return wallet, nil
}

// Refund credits money back after a cancelled or rejected paid order.
// Unlike Recharge it is not capped: the refund amount equals what was
// charged, however large.
func (s *walletService) Refund(ctx context.Context, userID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return entities.ErrInvalidAmount
	}

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.repo.EnsureWallet(ctx, userID); err != nil {
			return err
		}
		return s.repo.Deposit(ctx, userID, amount)
	})
	if err != nil {
		return fmt.Errorf("failed to refund: %w", err)
	}

	s.logger.Info("wallet refunded", slog.Int64("user_id", userID), slog.String("amount", amount.String()))
	return nil
}

// Consume debits the balance. An insufficient balance is an expected
// business outcome and is reported as false, not as an error.
func (s *walletService) Consume(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	if !amount.IsPositive() {
		return false, entities.ErrInvalidAmount
	}

	var ok bool
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.repo.EnsureWallet(ctx, userID); err != nil {
			return err
		}
		var err error
		ok, err = s.repo.TryConsume(ctx, userID, amount)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to consume: %w", err)
	}
	return ok, nil
}

func (s *walletService) Freeze(ctx context.Context, userID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return entities.ErrInvalidAmount
	}

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.repo.EnsureWallet(ctx, userID); err != nil {
			return err
		}
		ok, err := s.repo.FreezeFunds(ctx, userID, amount)
		if err != nil {
			return err
		}
		if !ok {
			return entities.ErrInsufficientBalance
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to freeze: %w", err)
	}
	return nil
}

func (s *walletService) Unfreeze(ctx context.Context, userID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return entities.ErrInvalidAmount
	}

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.repo.EnsureWallet(ctx, userID); err != nil {
			return err
		}
		ok, err := s.repo.UnfreezeFunds(ctx, userID, amount)
		if err != nil {
			return err
		}
		if !ok {
			return entities.ErrInsufficientFrozen
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to unfreeze: %w", err)
	}
	return nil
}

func (s *walletService) HasEnoughBalance(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return false, err
	}
	return balance.GreaterThanOrEqual(amount), nil
}

func (s *walletService) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	wallet, err := s.Wallet(ctx, userID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return wallet.Balance, nil
}

func (s *walletService) Wallet(ctx context.Context, userID int64) (entities.Wallet, error) {
	var wallet entities.Wallet
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.repo.EnsureWallet(ctx, userID); err != nil {
			return err
		}
		var err error
		wallet, err = s.repo.WalletByUser(ctx, userID)
		return err
	})
	if err != nil {
		return entities.Wallet{}, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

// DeleteWallet removes the wallet row entirely. Administrative only.
func (s *walletService) DeleteWallet(ctx context.Context, userID int64) error {
	if err := s.repo.DeleteWallet(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete wallet: %w", err)
	}
	s.logger.Info("wallet deleted", slog.Int64("user_id", userID))
	return nil
}
