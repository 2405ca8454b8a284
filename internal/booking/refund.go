// Package booking holds the application services that coordinate seat
// holds, reservations, payment settlement, and refunds across the
// repositories, the hold store, and the payment gateway.
package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// Refund rates by how far ahead of the showtime the cancellation lands.
// The schedule is a business rule shared with the terms of service; change
// both together.
var (
	fullRefundWindow  = 24 * time.Hour
	majorRefundWindow = time.Hour
	minorRefundWindow = 10 * time.Minute

	majorRefundRate = decimal.NewFromFloat(0.3)
	minorRefundRate = decimal.NewFromFloat(0.1)
)

// RefundAmount computes how much of a paid amount is returned when the
// reservation is cancelled untilStart ahead of the screening. Boundaries
// belong to the better tier: cancelling exactly 24 hours ahead still
// refunds in full.
func RefundAmount(untilStart time.Duration, paid decimal.Decimal) decimal.Decimal {
	switch {
	case untilStart >= fullRefundWindow:
		return paid
	case untilStart >= majorRefundWindow:
		return paid.Mul(majorRefundRate).Round(2)
	case untilStart >= minorRefundWindow:
		return paid.Mul(minorRefundRate).Round(2)
	default:
		return decimal.Zero
	}
}
