package entities

import "github.com/shopspring/decimal"

const ProductStatusOnSale = 1

type Product struct {
	ID       int64
	Name     string
	Price    decimal.Decimal
	ImageURL string
	Stock    int32
	Sales    int32
	Status   int32
}

func (p Product) Available() bool {
	return p.Status == ProductStatusOnSale
}

// CartItem is a line of a user's shopping cart. The whole cart is
// consumed (deleted) when an order is created from it.
type CartItem struct {
	ID        int64
	UserID    int64
	ProductID int64
	Quantity  int32
}
