package repo

import (
	"database/sql"
	"time"

	"mallorder/internal/entities"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              int64           `db:"id"`
	OrderNo         string          `db:"order_no"`
	UserID          int64           `db:"user_id"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	DiscountAmount  decimal.Decimal `db:"discount_amount"`
	DeliveryFee     decimal.Decimal `db:"delivery_fee"`
	ActualAmount    decimal.Decimal `db:"actual_amount"`
	Status          string          `db:"status"`
	PaymentStatus   string          `db:"payment_status"`
	DeliveryAddress string          `db:"delivery_address"`
	ContactName     string          `db:"contact_name"`
	ContactPhone    string          `db:"contact_phone"`
	Remark          sql.NullString  `db:"remark"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

type OrderItem struct {
	ID           int64           `db:"id"`
	OrderID      int64           `db:"order_id"`
	ProductID    int64           `db:"product_id"`
	ProductName  string          `db:"product_name"`
	ProductPrice decimal.Decimal `db:"product_price"`
	Quantity     int32           `db:"quantity"`
	Subtotal     decimal.Decimal `db:"subtotal"`
	ProductImage sql.NullString  `db:"product_image"`
}

type Wallet struct {
	ID               int64           `db:"id"`
	UserID           int64           `db:"user_id"`
	Balance          decimal.Decimal `db:"balance"`
	FrozenBalance    decimal.Decimal `db:"frozen_balance"`
	TotalRecharge    decimal.Decimal `db:"total_recharge"`
	TotalConsumption decimal.Decimal `db:"total_consumption"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

type Product struct {
	ID       int64           `db:"id"`
	Name     string          `db:"name"`
	Price    decimal.Decimal `db:"price"`
	ImageURL sql.NullString  `db:"image_url"`
	Stock    int32           `db:"stock"`
	Sales    int32           `db:"sales"`
	Status   int32           `db:"status"`
}

type CartItem struct {
	ID        int64 `db:"id"`
	UserID    int64 `db:"user_id"`
	ProductID int64 `db:"product_id"`
	Quantity  int32 `db:"quantity"`
}

func OrderToEntity(o Order, items []OrderItem) entities.Order {
	result := entities.Order{
		ID:              o.ID,
		OrderNo:         o.OrderNo,
		UserID:          o.UserID,
		TotalAmount:     o.TotalAmount,
		DiscountAmount:  o.DiscountAmount,
		DeliveryFee:     o.DeliveryFee,
		ActualAmount:    o.ActualAmount,
		Status:          entities.OrderStatus(o.Status),
		PaymentStatus:   entities.PaymentStatus(o.PaymentStatus),
		DeliveryAddress: o.DeliveryAddress,
		ContactName:     o.ContactName,
		ContactPhone:    o.ContactPhone,
		Remark:          o.Remark.String,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	result.Items = make([]entities.OrderItem, 0, len(items))
	for _, it := range items {
		result.Items = append(result.Items, OrderItemToEntity(it))
	}
	return result
}

func OrderItemToEntity(it OrderItem) entities.OrderItem {
	return entities.OrderItem{
		ID:           it.ID,
		OrderID:      it.OrderID,
		ProductID:    it.ProductID,
		ProductName:  it.ProductName,
		ProductPrice: it.ProductPrice,
		Quantity:     it.Quantity,
		Subtotal:     it.Subtotal,
		ProductImage: it.ProductImage.String,
	}
}

func WalletToEntity(w Wallet) entities.Wallet {
	return entities.Wallet{
		ID:               w.ID,
		UserID:           w.UserID,
		Balance:          w.Balance,
		FrozenBalance:    w.FrozenBalance,
		TotalRecharge:    w.TotalRecharge,
		TotalConsumption: w.TotalConsumption,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

func ProductToEntity(p Product) entities.Product {
	return entities.Product{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		ImageURL: p.ImageURL.String,
		Stock:    p.Stock,
		Sales:    p.Sales,
		Status:   p.Status,
	}
}

func CartItemToEntity(c CartItem) entities.CartItem {
	return entities.CartItem{
		ID:        c.ID,
		UserID:    c.UserID,
		ProductID: c.ProductID,
		Quantity:  c.Quantity,
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
