package mocks

import (
	"context"

	"github.com/megacine/reservation-system/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockPaymentGateway struct {
	mock.Mock
	domain.PaymentGateway
}

func (m *MockPaymentGateway) GetPaymentInfo(ctx context.Context, gatewayPaymentId string) (*domain.GatewayPayment, error) {
	args := m.Called(ctx, gatewayPaymentId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GatewayPayment), args.Error(1)
}

func (m *MockPaymentGateway) Refund(
	ctx context.Context,
	gatewayPaymentId string,
	amount decimal.Decimal,
	reason string) (*domain.RefundResult, error) {

	args := m.Called(ctx, gatewayPaymentId, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefundResult), args.Error(1)
}
