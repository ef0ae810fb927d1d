package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mallorder/internal/entities"
	"mallorder/pkg/trm"

	"github.com/shopspring/decimal"
)

type CartStore interface {
	CartByUser(ctx context.Context, userID int64) ([]entities.CartItem, error)
	CartItemByProduct(ctx context.Context, userID, productID int64) (entities.CartItem, error)
	UpsertCartItem(ctx context.Context, userID, productID int64, qty int32) error
	SetCartQuantity(ctx context.Context, userID, productID int64, qty int32) error
	DeleteCartItem(ctx context.Context, userID, productID int64) error
	ClearCart(ctx context.Context, userID int64) error
}

type ProductReader interface {
	ProductByID(ctx context.Context, productID int64) (entities.Product, error)
}

// CartLine pairs a cart item with live product data for display.
type CartLine struct {
	Item    entities.CartItem
	Product entities.Product
}

type cartService struct {
	logger    *slog.Logger
	txManager trm.Manager
	carts     CartStore
	products  ProductReader
}

func NewCartService(logger *slog.Logger, txManager trm.Manager, carts CartStore, products ProductReader) *cartService {
	return &cartService{
		logger:    logger.With(slog.String("service", "cart")),
		txManager: txManager,
		carts:     carts,
		products:  products,
	}
}

// AddToCart adds qty of a product, merging with an existing line. The
// stock check here is advisory: it is re-validated against live stock
// at order creation.
func (s *cartService) AddToCart(ctx context.Context, userID, productID int64, qty int32) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", entities.ErrValidation)
	}

	return s.txManager.Do(ctx, func(ctx context.Context) error {
		product, err := s.products.ProductByID(ctx, productID)
		if err != nil {
			return err
		}
		if !product.Available() {
			return entities.ErrProductUnavailable
		}

		existing := int32(0)
		item, err := s.carts.CartItemByProduct(ctx, userID, productID)
		if err != nil && !errors.Is(err, entities.ErrCartItemNotFound) {
			return err
		}
		if err == nil {
			existing = item.Quantity
		}
		if product.Stock < existing+qty {
			return fmt.Errorf("product %q: %w", product.Name, entities.ErrInsufficientStock)
		}

		return s.carts.UpsertCartItem(ctx, userID, productID, qty)
	})
}

// UpdateQuantity sets a line's quantity; zero or below removes the line.
func (s *cartService) UpdateQuantity(ctx context.Context, userID, productID int64, qty int32) error {
	if qty <= 0 {
		return s.carts.DeleteCartItem(ctx, userID, productID)
	}

	return s.txManager.Do(ctx, func(ctx context.Context) error {
		product, err := s.products.ProductByID(ctx, productID)
		if err != nil {
			return err
		}
		if product.Stock < qty {
			return fmt.Errorf("product %q: %w", product.Name, entities.ErrInsufficientStock)
		}
		return s.carts.SetCartQuantity(ctx, userID, productID, qty)
	})
}

func (s *cartService) RemoveFromCart(ctx context.Context, userID, productID int64) error {
	return s.carts.DeleteCartItem(ctx, userID, productID)
}

func (s *cartService) ClearCart(ctx context.Context, userID int64) error {
	return s.carts.ClearCart(ctx, userID)
}

// GetCart returns the user's cart joined with live product data. Lines
// whose product no longer exists are kept with an empty product so the
// caller can surface them.
func (s *cartService) GetCart(ctx context.Context, userID int64) ([]CartLine, error) {
	items, err := s.carts.CartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines := make([]CartLine, 0, len(items))
	for _, item := range items {
		line := CartLine{Item: item}
		product, err := s.products.ProductByID(ctx, item.ProductID)
		if err != nil && !errors.Is(err, entities.ErrProductNotFound) {
			return nil, err
		}
		if err == nil {
			line.Product = product
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// CartTotal sums live price times quantity over the cart.
func (s *cartService) CartTotal(ctx context.Context, userID int64) (decimal.Decimal, error) {
	lines, err := s.GetCart(ctx, userID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	total := decimal.Zero
	for _, line := range lines {
		if line.Product.ID == 0 {
			continue
		}
		total = total.Add(line.Product.Price.Mul(decimal.NewFromInt32(line.Item.Quantity)))
	}
	return total, nil
}
