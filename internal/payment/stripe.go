package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/megacine/reservation-system/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"
)

// StripeGateway adapts the Stripe API to the settlement flow. The frontend
// drives the actual payment with Stripe Elements; the backend only fetches
// the resulting payment intent for reconciliation and issues refunds.
type StripeGateway struct{}

func NewStripeGateway(apiKey string) *StripeGateway {
	stripe.Key = apiKey
	return &StripeGateway{}
}

func (g *StripeGateway) GetPaymentInfo(ctx context.Context, gatewayPaymentId string) (*domain.GatewayPayment, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	}
	params.AddExpand("payment_method")

	intent, err := paymentintent.Get(gatewayPaymentId, params)
	if err != nil {
		return nil, err
	}

	info := &domain.GatewayPayment{
		ID:       intent.ID,
		Amount:   centsToDecimal(intent.Amount),
		Paid:     intent.Status == stripe.PaymentIntentStatusSucceeded,
		Status:   string(intent.Status),
		Provider: "stripe",
		PaidAt:   time.Unix(intent.Created, 0),
	}

	if intent.PaymentMethod != nil {
		info.Method = string(intent.PaymentMethod.Type)
		if intent.PaymentMethod.Card != nil {
			info.CardName = string(intent.PaymentMethod.Card.Brand)
		}
	}

	return info, nil
}

func (g *StripeGateway) Refund(
	ctx context.Context,
	gatewayPaymentId string,
	amount decimal.Decimal,
	reason string) (*domain.RefundResult, error) {

	params := &stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(gatewayPaymentId),
		Amount:        stripe.Int64(decimalToCents(amount)),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
		Metadata: map[string]string{
			"reason": reason,
		},
	}
	params.SetIdempotencyKey(uuid.NewString())

	r, err := refund.New(params)
	if err != nil {
		return nil, err
	}

	return &domain.RefundResult{
		Amount:      centsToDecimal(r.Amount),
		CancelledAt: time.Unix(r.Created, 0),
	}, nil
}

func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
}

func decimalToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}
