package domain

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusReady     PaymentStatus = "READY"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

const (
	merchantUidPrefix    = "megacine"
	merchantUidSuffixLen = 10
	alphaNum             = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Payment tracks one payment attempt for a reservation group against the
// external gateway. ExpectedAmount is copied from the group at creation and
// is the amount the gateway record must match exactly.
type Payment struct {
	ID               int
	GroupID          int
	BuyerName        string
	BuyerPhoneNumber string
	BuyerEmail       string
	MerchantUid      string
	GatewayPaymentID *string
	ExpectedAmount   decimal.Decimal
	PaidAmount       decimal.Decimal
	RefundAmount     decimal.Decimal
	Status           PaymentStatus
	Provider         *string
	Method           *string
	CardName         *string
	FailReason       *string
	CancelReason     *string
	PaidAt           *time.Time
	CancelledAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewPayment(group *ReservationGroup, buyer *User) *Payment {
	return &Payment{
		GroupID:          group.ID,
		BuyerName:        buyer.Name,
		BuyerPhoneNumber: buyer.PhoneNumber,
		BuyerEmail:       buyer.Email,
		MerchantUid:      NewMerchantUid(group.ID),
		ExpectedAmount:   group.TotalPrice,
		Status:           PaymentStatusReady,
	}
}

// NewMerchantUid builds the merchant-side transaction id:
// megacine-<unix millis>-<group id>-<10 random alphanumerics>.
// Collisions are vanishingly unlikely; the unique constraint on
// payments.merchant_uid is the backstop.
func NewMerchantUid(groupId int) string {
	return fmt.Sprintf("%s-%d-%d-%s",
		merchantUidPrefix,
		time.Now().UnixMilli(),
		groupId,
		randomAlphaNum(merchantUidSuffixLen),
	)
}

func randomAlphaNum(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphaNum))))
		if err != nil {
			panic(err)
		}
		b[i] = alphaNum[idx.Int64()]
	}

	return string(b)
}

// IsFinalized reports whether the verification outcome of this payment is
// already settled. Once finalized, re-verification is a no-op.
func (p *Payment) IsFinalized() bool {
	return p.Status != PaymentStatusReady
}

func (p *Payment) MarkFailed(reason string) {
	p.Status = PaymentStatusFailed
	p.FailReason = &reason
}

// MarkCompleted copies the gateway's canonical record onto the payment after
// a full reconciliation match.
func (p *Payment) MarkCompleted(info *GatewayPayment) {
	p.GatewayPaymentID = &info.ID
	p.PaidAmount = info.Amount
	p.Provider = &info.Provider
	p.Method = &info.Method
	p.CardName = &info.CardName
	p.PaidAt = &info.PaidAt
	p.Status = PaymentStatusCompleted
}

// MarkCancelled records a settled refund. This is the only transition out of
// COMPLETED.
func (p *Payment) MarkCancelled(refundAmount decimal.Decimal, reason string, cancelledAt time.Time) {
	p.Status = PaymentStatusCancelled
	p.RefundAmount = refundAmount
	p.CancelReason = &reason
	p.CancelledAt = &cancelledAt
}

type PaymentRepository interface {
	Create(ctx context.Context, tx pgx.Tx, payment *Payment) error
	GetByMerchantUidForUpdate(ctx context.Context, tx pgx.Tx, merchantUid string) (*Payment, error)
	GetByGroupIdForUpdate(ctx context.Context, tx pgx.Tx, groupId int) (*Payment, error)
	Update(ctx context.Context, tx pgx.Tx, payment *Payment) error

	// MarkRefundFailed persists a FAILED status outside any caller
	// transaction, so the mark survives the rollback of a refund attempt.
	MarkRefundFailed(ctx context.Context, paymentId int, reason string) error
}
