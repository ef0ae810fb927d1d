package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"mallorder/internal/entities"
	"mallorder/internal/events"
	"mallorder/pkg/trm"

	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// memStore is shared in-memory state behind the fake repositories.
// The fake tx manager snapshots it before a transaction and restores
// the snapshot on error, mimicking a database rollback.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	orders   map[int64]entities.Order
	wallets  map[int64]entities.Wallet
	products map[int64]entities.Product
	carts    map[int64][]entities.CartItem
}

func newMemStore() *memStore {
	return &memStore{
		orders:   make(map[int64]entities.Order),
		wallets:  make(map[int64]entities.Wallet),
		products: make(map[int64]entities.Product),
		carts:    make(map[int64][]entities.CartItem),
	}
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	c.nextID = s.nextID
	for id, o := range s.orders {
		o.Items = append([]entities.OrderItem(nil), o.Items...)
		c.orders[id] = o
	}
	for id, w := range s.wallets {
		c.wallets[id] = w
	}
	for id, p := range s.products {
		c.products[id] = p
	}
	for id, items := range s.carts {
		c.carts[id] = append([]entities.CartItem(nil), items...)
	}
	return c
}

func (s *memStore) restore(from *memStore) {
	s.nextID = from.nextID
	s.orders = from.orders
	s.wallets = from.wallets
	s.products = from.products
	s.carts = from.carts
}

type txKey struct{}

// fakeTxManager serializes transactions with the store mutex, the way
// row locks serialize them in Postgres, and rolls the store back when
// the callback fails. A nested Do joins the ongoing transaction.
type fakeTxManager struct {
	store *memStore
}

func (m *fakeTxManager) BeginTx(ctx context.Context) (context.Context, trm.Transaction, error) {
	panic("not used in tests")
}

func (m *fakeTxManager) Do(ctx context.Context, callback func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return callback(ctx)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	snapshot := m.store.clone()
	if err := callback(context.WithValue(ctx, txKey{}, struct{}{})); err != nil {
		m.store.restore(snapshot)
		return err
	}
	return nil
}

// memRepo implements the order, product, wallet and cart repository
// interfaces on top of memStore with the same guard semantics as the
// SQL statements.
type memRepo struct {
	store *memStore
}

func (r *memRepo) InsertOrder(_ context.Context, o entities.Order) (int64, error) {
	r.store.nextID++
	o.ID = r.store.nextID
	r.store.orders[o.ID] = o
	return o.ID, nil
}

func (r *memRepo) InsertOrderItems(_ context.Context, orderID int64, items []entities.OrderItem) error {
	o := r.store.orders[orderID]
	for i, it := range items {
		it.ID = int64(i + 1)
		it.OrderID = orderID
		o.Items = append(o.Items, it)
	}
	r.store.orders[orderID] = o
	return nil
}

func (r *memRepo) OrderByID(_ context.Context, orderID int64) (entities.Order, error) {
	o, ok := r.store.orders[orderID]
	if !ok {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return o, nil
}

func (r *memRepo) OrderByIDForUpdate(ctx context.Context, orderID int64) (entities.Order, error) {
	return r.OrderByID(ctx, orderID)
}

func (r *memRepo) OrderByNo(_ context.Context, orderNo string) (entities.Order, error) {
	for _, o := range r.store.orders {
		if o.OrderNo == orderNo {
			return o, nil
		}
	}
	return entities.Order{}, entities.ErrOrderNotFound
}

func (r *memRepo) OrdersByUser(_ context.Context, userID int64) ([]entities.Order, error) {
	var result []entities.Order
	for _, o := range r.store.orders {
		if o.UserID == userID {
			result = append(result, o)
		}
	}
	return result, nil
}

func (r *memRepo) OrdersByStatus(_ context.Context, status entities.OrderStatus) ([]entities.Order, error) {
	var result []entities.Order
	for _, o := range r.store.orders {
		if o.Status == status {
			result = append(result, o)
		}
	}
	return result, nil
}

func (r *memRepo) UpdateOrderState(_ context.Context, orderID int64, status entities.OrderStatus, paymentStatus entities.PaymentStatus, remark *string) error {
	o, ok := r.store.orders[orderID]
	if !ok {
		return entities.ErrOrderNotFound
	}
	o.Status = status
	o.PaymentStatus = paymentStatus
	if remark != nil {
		o.Remark = *remark
	}
	r.store.orders[orderID] = o
	return nil
}

func (r *memRepo) ProductByID(_ context.Context, productID int64) (entities.Product, error) {
	p, ok := r.store.products[productID]
	if !ok {
		return entities.Product{}, entities.ErrProductNotFound
	}
	return p, nil
}

func (r *memRepo) ProductByIDForUpdate(ctx context.Context, productID int64) (entities.Product, error) {
	return r.ProductByID(ctx, productID)
}

func (r *memRepo) DecrementStock(_ context.Context, productID int64, qty int32) error {
	p, ok := r.store.products[productID]
	if !ok || p.Stock < qty {
		return entities.ErrInsufficientStock
	}
	p.Stock -= qty
	p.Sales += qty
	r.store.products[productID] = p
	return nil
}

func (r *memRepo) RestoreStock(_ context.Context, productID int64, qty int32) error {
	p, ok := r.store.products[productID]
	if !ok {
		return nil
	}
	p.Stock += qty
	r.store.products[productID] = p
	return nil
}

func (r *memRepo) EnsureWallet(_ context.Context, userID int64) error {
	if _, ok := r.store.wallets[userID]; !ok {
		r.store.wallets[userID] = entities.Wallet{ID: userID, UserID: userID}
	}
	return nil
}

func (r *memRepo) WalletByUser(_ context.Context, userID int64) (entities.Wallet, error) {
	w, ok := r.store.wallets[userID]
	if !ok {
		return entities.Wallet{}, entities.ErrWalletNotFound
	}
	return w, nil
}

func (r *memRepo) Deposit(_ context.Context, userID int64, amount decimal.Decimal) error {
	w, ok := r.store.wallets[userID]
	if !ok {
		return entities.ErrWalletNotFound
	}
	w.Balance = w.Balance.Add(amount)
	w.TotalRecharge = w.TotalRecharge.Add(amount)
	r.store.wallets[userID] = w
	return nil
}

func (r *memRepo) TryConsume(_ context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	w, ok := r.store.wallets[userID]
	if !ok || w.Balance.LessThan(amount) {
		return false, nil
	}
	w.Balance = w.Balance.Sub(amount)
	w.TotalConsumption = w.TotalConsumption.Add(amount)
	r.store.wallets[userID] = w
	return true, nil
}

func (r *memRepo) FreezeFunds(_ context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	w, ok := r.store.wallets[userID]
	if !ok || w.Balance.LessThan(amount) {
		return false, nil
	}
	w.Balance = w.Balance.Sub(amount)
	w.FrozenBalance = w.FrozenBalance.Add(amount)
	r.store.wallets[userID] = w
	return true, nil
}

func (r *memRepo) UnfreezeFunds(_ context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	w, ok := r.store.wallets[userID]
	if !ok || w.FrozenBalance.LessThan(amount) {
		return false, nil
	}
	w.FrozenBalance = w.FrozenBalance.Sub(amount)
	w.Balance = w.Balance.Add(amount)
	r.store.wallets[userID] = w
	return true, nil
}

func (r *memRepo) DeleteWallet(_ context.Context, userID int64) error {
	if _, ok := r.store.wallets[userID]; !ok {
		return entities.ErrWalletNotFound
	}
	delete(r.store.wallets, userID)
	return nil
}

func (r *memRepo) CartByUser(_ context.Context, userID int64) ([]entities.CartItem, error) {
	return append([]entities.CartItem(nil), r.store.carts[userID]...), nil
}

func (r *memRepo) CartItemByProduct(_ context.Context, userID, productID int64) (entities.CartItem, error) {
	for _, it := range r.store.carts[userID] {
		if it.ProductID == productID {
			return it, nil
		}
	}
	return entities.CartItem{}, entities.ErrCartItemNotFound
}

func (r *memRepo) UpsertCartItem(_ context.Context, userID, productID int64, qty int32) error {
	items := r.store.carts[userID]
	for i, it := range items {
		if it.ProductID == productID {
			items[i].Quantity += qty
			r.store.carts[userID] = items
			return nil
		}
	}
	r.store.carts[userID] = append(items, entities.CartItem{
		ID: int64(len(items) + 1), UserID: userID, ProductID: productID, Quantity: qty,
	})
	return nil
}

func (r *memRepo) SetCartQuantity(_ context.Context, userID, productID int64, qty int32) error {
	items := r.store.carts[userID]
	for i, it := range items {
		if it.ProductID == productID {
			items[i].Quantity = qty
			r.store.carts[userID] = items
			return nil
		}
	}
	return entities.ErrCartItemNotFound
}

func (r *memRepo) DeleteCartItem(_ context.Context, userID, productID int64) error {
	items := r.store.carts[userID]
	for i, it := range items {
		if it.ProductID == productID {
			r.store.carts[userID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memRepo) ClearCart(_ context.Context, userID int64) error {
	delete(r.store.carts, userID)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *fakePublisher) Publish(_ context.Context, event events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]entities.Order
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]entities.Order)}
}

func (c *fakeCache) Get(key string) (entities.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.entries[key]
	return o, ok
}

func (c *fakeCache) Set(key string, order entities.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = order
}

func (c *fakeCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
