package payment

import (
	"context"
	"time"

	"github.com/megacine/reservation-system/internal/domain"
	"github.com/shopspring/decimal"
)

// MockGateway is a settable in-memory gateway for integration tests.
type MockGateway struct {
	Payments  map[string]*domain.GatewayPayment
	Err       error
	RefundErr error
	Refunds   []MockRefund
}

type MockRefund struct {
	GatewayPaymentId string
	Amount           decimal.Decimal
	Reason           string
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		Payments: make(map[string]*domain.GatewayPayment),
	}
}

func (m *MockGateway) GetPaymentInfo(ctx context.Context, gatewayPaymentId string) (*domain.GatewayPayment, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	info, ok := m.Payments[gatewayPaymentId]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}

	return info, nil
}

func (m *MockGateway) Refund(
	ctx context.Context,
	gatewayPaymentId string,
	amount decimal.Decimal,
	reason string) (*domain.RefundResult, error) {

	if m.RefundErr != nil {
		return nil, m.RefundErr
	}

	m.Refunds = append(m.Refunds, MockRefund{
		GatewayPaymentId: gatewayPaymentId,
		Amount:           amount,
		Reason:           reason,
	})

	return &domain.RefundResult{Amount: amount, CancelledAt: time.Now()}, nil
}

func (m *MockGateway) Reset() {
	m.Payments = make(map[string]*domain.GatewayPayment)
	m.Err = nil
	m.RefundErr = nil
	m.Refunds = nil
}
