package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID      int64
	OrderNo string
	UserID  int64

	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	DeliveryFee    decimal.Decimal
	// ActualAmount is what the wallet is charged: total + delivery fee - discount.
	ActualAmount decimal.Decimal

	Status        OrderStatus
	PaymentStatus PaymentStatus

	DeliveryAddress string
	ContactName     string
	ContactPhone    string
	Remark          string

	CreatedAt time.Time
	UpdatedAt time.Time

	Items []OrderItem
}

// OrderItem is a snapshot of a purchased line, captured at order creation.
// Price, name and image are fixed at that moment and never recomputed
// from live product data.
type OrderItem struct {
	ID           int64
	OrderID      int64
	ProductID    int64
	ProductName  string
	ProductPrice decimal.Decimal
	Quantity     int32
	Subtotal     decimal.Decimal
	ProductImage string
}
