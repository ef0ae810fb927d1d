package handler

import (
	"time"

	"mallorder/internal/entities"
	"mallorder/internal/service"

	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	UserID          int64    `json:"user_id" validate:"required,gt=0"`
	Remark          string   `json:"remark,omitempty"`
	DeliveryAddress string   `json:"delivery_address" validate:"required"`
	ContactName     string   `json:"contact_name" validate:"required"`
	ContactPhone    string   `json:"contact_phone" validate:"required"`
	DistanceKm      *float64 `json:"distance_km,omitempty" validate:"omitempty,gt=0"`
}

type UserRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

type RejectOrderRequest struct {
	Reason string `json:"reason,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type AmountRequest struct {
	UserID int64           `json:"user_id" validate:"required,gt=0"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type CartItemRequest struct {
	UserID    int64 `json:"user_id" validate:"required,gt=0"`
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int32 `json:"quantity" validate:"required"`
}

// Order represents an order in responses
type Order struct {
	ID              int64           `json:"id"`
	OrderNo         string          `json:"order_no"`
	UserID          int64           `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	ActualAmount    decimal.Decimal `json:"actual_amount"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	DeliveryAddress string          `json:"delivery_address"`
	ContactName     string          `json:"contact_name"`
	ContactPhone    string          `json:"contact_phone"`
	Remark          string          `json:"remark,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItem     `json:"items"`
}

// OrderItem is a purchased line snapshot
type OrderItem struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int32           `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ProductImage string          `json:"product_image,omitempty"`
}

// Wallet represents a user's wallet in responses
type Wallet struct {
	UserID           int64           `json:"user_id"`
	Balance          decimal.Decimal `json:"balance"`
	FrozenBalance    decimal.Decimal `json:"frozen_balance"`
	TotalRecharge    decimal.Decimal `json:"total_recharge"`
	TotalConsumption decimal.Decimal `json:"total_consumption"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type ConsumeResponse struct {
	Success bool `json:"success"`
}

type ReorderResponse struct {
	Added int `json:"added"`
}

type CartLine struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name,omitempty"`
	ProductPrice decimal.Decimal `json:"product_price"`
	ProductImage string          `json:"product_image,omitempty"`
	Quantity     int32           `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Available    bool            `json:"available"`
}

type CartResponse struct {
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItem{
			ID:           it.ID,
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ProductPrice: it.ProductPrice,
			Quantity:     it.Quantity,
			Subtotal:     it.Subtotal,
			ProductImage: it.ProductImage,
		})
	}

	return Order{
		ID:              o.ID,
		OrderNo:         o.OrderNo,
		UserID:          o.UserID,
		TotalAmount:     o.TotalAmount,
		DiscountAmount:  o.DiscountAmount,
		DeliveryFee:     o.DeliveryFee,
		ActualAmount:    o.ActualAmount,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		DeliveryAddress: o.DeliveryAddress,
		ContactName:     o.ContactName,
		ContactPhone:    o.ContactPhone,
		Remark:          o.Remark,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           items,
	}
}

func OrdersEntityToJSON(orders []entities.Order) []Order {
	result := make([]Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, OrderEntityToJSON(o))
	}
	return result
}

func WalletEntityToJSON(w entities.Wallet) Wallet {
	return Wallet{
		UserID:           w.UserID,
		Balance:          w.Balance,
		FrozenBalance:    w.FrozenBalance,
		TotalRecharge:    w.TotalRecharge,
		TotalConsumption: w.TotalConsumption,
		UpdatedAt:        w.UpdatedAt,
	}
}

func CartLinesToJSON(lines []service.CartLine) CartResponse {
	resp := CartResponse{
		Items: make([]CartLine, 0, len(lines)),
		Total: decimal.Zero,
	}
	for _, line := range lines {
		available := line.Product.ID != 0 && line.Product.Available()
		subtotal := line.Product.Price.Mul(decimal.NewFromInt32(line.Item.Quantity))
		resp.Items = append(resp.Items, CartLine{
			ProductID:    line.Item.ProductID,
			ProductName:  line.Product.Name,
			ProductPrice: line.Product.Price,
			ProductImage: line.Product.ImageURL,
			Quantity:     line.Item.Quantity,
			Subtotal:     subtotal,
			Available:    available,
		})
		if available {
			resp.Total = resp.Total.Add(subtotal)
		}
	}
	return resp
}
