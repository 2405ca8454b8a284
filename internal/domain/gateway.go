package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// GatewayPayment is the gateway's canonical record of one transaction, the
// reference every local Payment is reconciled against.
type GatewayPayment struct {
	ID       string
	Amount   decimal.Decimal
	Paid     bool
	Status   string
	Provider string
	Method   string
	CardName string
	PaidAt   time.Time
}

type RefundResult struct {
	Amount      decimal.Decimal
	CancelledAt time.Time
}

// PaymentGateway is the external payment provider. GetPaymentInfo fetches
// the canonical record for a gateway transaction id; Refund cancels up to
// the given amount and returns what the gateway actually refunded.
type PaymentGateway interface {
	GetPaymentInfo(ctx context.Context, gatewayPaymentId string) (*GatewayPayment, error)
	Refund(ctx context.Context, gatewayPaymentId string, amount decimal.Decimal, reason string) (*RefundResult, error)
}
