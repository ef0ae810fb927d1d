package service_test

import (
	"context"
	"testing"

	"mallorder/internal/entities"
	"mallorder/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

func TestWalletService_Recharge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		amount  string
		wantErr error
	}{
		{name: "success", amount: "100.50"},
		{name: "exactly at limit", amount: "1000"},
		{name: "zero amount", amount: "0", wantErr: entities.ErrInvalidAmount},
		{name: "negative amount", amount: "-5", wantErr: entities.ErrInvalidAmount},
		{name: "over limit", amount: "1000.01", wantErr: entities.ErrRechargeLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newMemStore()
			svc := service.NewWalletService(testLogger(), &fakeTxManager{store: store}, &memRepo{store: store}, dec("1000"))

			wallet, err := svc.Recharge(context.Background(), 1, dec(tt.amount))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				_, ok := store.wallets[1]
				assert.False(t, ok, "failed recharge must not create a wallet")
				return
			}

			require.NoError(t, err)
			requireAmount(t, tt.amount, wallet.Balance)
			requireAmount(t, tt.amount, wallet.TotalRecharge)
			requireAmount(t, "0", wallet.TotalConsumption)
		})
	}
}

func TestWalletService_RechargeAccumulates(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	svc := service.NewWalletService(testLogger(), &fakeTxManager{store: store}, &memRepo{store: store}, dec("1000"))
	ctx := context.Background()

	_, err := svc.Recharge(ctx, 7, dec("100.25"))
	require.NoError(t, err)
	wallet, err := svc.Recharge(ctx, 7, dec("49.75"))
	require.NoError(t, err)

	requireAmount(t, "150.00", wallet.Balance)
	requireAmount(t, "150.00", wallet.TotalRecharge)
}

func TestWalletService_Consume(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	svc := service.NewWalletService(testLogger(), &fakeTxManager{store: store}, &memRepo{store: store}, dec("1000"))
	ctx := context.Background()

	_, err := svc.Recharge(ctx, 1, dec("50"))
	require.NoError(t, err)

	ok, err := svc.Consume(ctx, 1, dec("50.01"))
	require.NoError(t, err)
	assert.False(t, ok, "insufficient balance must report false, not an error")

	wallet, err := svc.Wallet(ctx, 1)
	require.NoError(t, err)
	requireAmount(t, "50", wallet.Balance)
	requireAmount(t, "0", wallet.TotalConsumption)

	ok, err = svc.Consume(ctx, 1, dec("49.99"))
	require.NoError(t, err)
	assert.True(t, ok)

	wallet, err = svc.Wallet(ctx, 1)
	require.NoError(t, err)
	requireAmount(t, "0.01", wallet.Balance)
	requireAmount(t, "49.99", wallet.TotalConsumption)

	_, err = svc.Consume(ctx, 1, dec("0"))
	require.ErrorIs(t, err, entities.ErrInvalidAmount)
}

func TestWalletService_RechargeConsumeRoundTrip(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	svc := service.NewWalletService(testLogger(), &fakeTxManager{store: store}, &memRepo{store: store}, dec("1000"))
	ctx := context.Background()

	_, err := svc.Recharge(ctx, 3, dec("123.45"))
	require.NoError(t, err)
	ok, err := svc.Consume(ctx, 3, dec("123.45"))
	require.NoError(t, err)
	require.True(t, ok)

	wallet, err := svc.Wallet(ctx, 3)
	require.NoError(t, err)
	requireAmount(t, "0", wallet.Balance)
	requireAmount(t, "123.45", wallet.TotalRecharge)
	requireAmount(t, "123.45", wallet.TotalConsumption)
}

func TestWalletService_FreezeUnfreeze(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	svc := service.NewWalletService(testLogger(), &fakeTxManager{store: store}, &memRepo{store: store}, dec("1000"))
	ctx := context.Background()

	_, err := svc.Recharge(ctx, 1, dec("200"))
	require.NoError(t, err)

	require.NoError(t, svc.Freeze(ctx, 1, dec("80")))
	wallet, err := svc.Wallet(ctx, 1)
	require.NoError(t, err)
	requireAmount(t, "120", wallet.Balance)
	requireAmount(t, "80", wallet.FrozenBalance)

	err = svc.Freeze(ctx, 1, dec("120.01"))
	require.ErrorIs(t, err, entities.ErrInsufficientBalance)

	err = svc.Unfreeze(ctx, 1, dec("80.01"))
	require.ErrorIs(t, err, entities.ErrInsufficientFrozen)

	require.NoError(t, svc.Unfreeze(ctx, 1, dec("80")))
	wallet, err = svc.Wallet(ctx, 1)
	require.NoError(t, err)
	requireAmount(t, "200", wallet.Balance)
	requireAmount(t, "0", wallet.FrozenBalance)
}

func TestWalletService_FrozenFundsNotConsumable(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	svc := service.NewWalletService(testLogger(), &fakeTxManager{store: store}, &memRepo{store: store}, dec("1000"))
	ctx := context.Background()

	_, err := svc.Recharge(ctx, 1, dec("100"))
	require.NoError(t, err)
	require.NoError(t, svc.Freeze(ctx, 1, dec("60")))

	ok, err := svc.Consume(ctx, 1, dec("50"))
	require.NoError(t, err)
	assert.False(t, ok, "consume must only draw from the available balance")
}

func TestWalletService_RefundIsNotCapped(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	svc := service.NewWalletService(testLogger(), &fakeTxManager{store: store}, &memRepo{store: store}, dec("1000"))
	ctx := context.Background()

	require.NoError(t, svc.Refund(ctx, 9, dec("2500")))

	wallet, err := svc.Wallet(ctx, 9)
	require.NoError(t, err)
	requireAmount(t, "2500", wallet.Balance)

	err = svc.Refund(ctx, 9, dec("-1"))
	require.ErrorIs(t, err, entities.ErrInvalidAmount)
}

func TestWalletService_HasEnoughBalance(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	svc := service.NewWalletService(testLogger(), &fakeTxManager{store: store}, &memRepo{store: store}, dec("1000"))
	ctx := context.Background()

	_, err := svc.Recharge(ctx, 1, dec("30"))
	require.NoError(t, err)

	ok, err := svc.HasEnoughBalance(ctx, 1, dec("30"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasEnoughBalance(ctx, 1, dec("30.01"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWalletService_DeleteWallet(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	svc := service.NewWalletService(testLogger(), &fakeTxManager{store: store}, &memRepo{store: store}, dec("1000"))
	ctx := context.Background()

	err := svc.DeleteWallet(ctx, 5)
	require.ErrorIs(t, err, entities.ErrNotFound)

	_, err = svc.Recharge(ctx, 5, dec("10"))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteWallet(ctx, 5))

	// reading recreates the wallet lazily, with a fresh balance
	wallet, err := svc.Wallet(ctx, 5)
	require.NoError(t, err)
	requireAmount(t, "0", wallet.Balance)
}
