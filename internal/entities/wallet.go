package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is a closed-loop balance, one row per user, created lazily on
// first access. Balance and FrozenBalance are independent pools: freeze
// moves funds from one to the other, consume only draws from Balance.
// TotalRecharge and TotalConsumption are audit counters and never decrease.
type Wallet struct {
	ID               int64
	UserID           int64
	Balance          decimal.Decimal
	FrozenBalance    decimal.Decimal
	TotalRecharge    decimal.Decimal
	TotalConsumption decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
