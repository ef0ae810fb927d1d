package service

import "github.com/shopspring/decimal"

var (
	baseDeliveryFee       = decimal.RequireFromString("5.00")
	freeDeliveryThreshold = decimal.RequireFromString("100.00")
	distanceFeePerKm      = decimal.RequireFromString("2.00")
)

// CalculateDeliveryFee returns the delivery fee for an order total.
// Orders at or above the free-delivery threshold ship for free;
// otherwise the base fee applies, plus a per-kilometre fee when a
// distance is known. The result is rounded to 2 decimal places.
func CalculateDeliveryFee(totalAmount decimal.Decimal, distanceKm *float64) decimal.Decimal {
	if totalAmount.GreaterThanOrEqual(freeDeliveryThreshold) {
		return decimal.Zero
	}

	fee := baseDeliveryFee
	if distanceKm != nil && *distanceKm > 0 {
		fee = fee.Add(decimal.NewFromFloat(*distanceKm).Mul(distanceFeePerKm))
	}

	return fee.Round(2)
}

func IsFreeDelivery(totalAmount decimal.Decimal) bool {
	return totalAmount.GreaterThanOrEqual(freeDeliveryThreshold)
}
