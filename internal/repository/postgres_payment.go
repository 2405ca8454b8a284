package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/megacine/reservation-system/internal/domain"
)

type PostgresPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPaymentRepository(db *pgxpool.Pool) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{
		db: db,
	}
}

const paymentColumns = `
	id, reservation_group_id, buyer_name, buyer_phone_number, buyer_email,
	merchant_uid, gateway_payment_id, expected_amount,
	COALESCE(paid_amount, 0), COALESCE(refund_amount, 0), status,
	pg_provider, pay_method, card_name, fail_reason, cancel_reason,
	paid_at, cancelled_at, created_at, updated_at
`

func scanPayment(row pgx.Row, payment *domain.Payment) error {
	return row.Scan(
		&payment.ID,
		&payment.GroupID,
		&payment.BuyerName,
		&payment.BuyerPhoneNumber,
		&payment.BuyerEmail,
		&payment.MerchantUid,
		&payment.GatewayPaymentID,
		&payment.ExpectedAmount,
		&payment.PaidAmount,
		&payment.RefundAmount,
		&payment.Status,
		&payment.Provider,
		&payment.Method,
		&payment.CardName,
		&payment.FailReason,
		&payment.CancelReason,
		&payment.PaidAt,
		&payment.CancelledAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
}

func (p *PostgresPaymentRepository) Create(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			reservation_group_id, buyer_name, buyer_phone_number, buyer_email,
			merchant_uid, expected_amount, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(
		ctx,
		query,
		payment.GroupID,
		payment.BuyerName,
		payment.BuyerPhoneNumber,
		payment.BuyerEmail,
		payment.MerchantUid,
		payment.ExpectedAmount,
		payment.Status,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrEditConflict
		}

		return err
	}

	return nil
}

func (p *PostgresPaymentRepository) GetByMerchantUidForUpdate(
	ctx context.Context,
	tx pgx.Tx,
	merchantUid string) (*domain.Payment, error) {

	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE merchant_uid = $1
		FOR UPDATE
	`

	var payment domain.Payment

	err := scanPayment(tx.QueryRow(ctx, query, merchantUid), &payment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}

		return nil, err
	}

	return &payment, nil
}

func (p *PostgresPaymentRepository) GetByGroupIdForUpdate(
	ctx context.Context,
	tx pgx.Tx,
	groupId int) (*domain.Payment, error) {

	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE reservation_group_id = $1
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE
	`

	var payment domain.Payment

	err := scanPayment(tx.QueryRow(ctx, query, groupId), &payment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}

		return nil, err
	}

	return &payment, nil
}

func (p *PostgresPaymentRepository) Update(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET gateway_payment_id = $1,
			paid_amount = $2,
			refund_amount = $3,
			status = $4,
			pg_provider = $5,
			pay_method = $6,
			card_name = $7,
			fail_reason = $8,
			cancel_reason = $9,
			paid_at = $10,
			cancelled_at = $11,
			updated_at = NOW()
		WHERE id = $12
	`

	_, err := pick(tx, p.db).Exec(
		ctx,
		query,
		payment.GatewayPaymentID,
		payment.PaidAmount,
		payment.RefundAmount,
		payment.Status,
		payment.Provider,
		payment.Method,
		payment.CardName,
		payment.FailReason,
		payment.CancelReason,
		payment.PaidAt,
		payment.CancelledAt,
		payment.ID,
	)

	return err
}

// MarkRefundFailed writes the FAILED mark on the pool, outside any caller
// transaction. The refund path rolls its transaction back on gateway failure
// and this mark must survive that rollback so operators can find the payment.
func (p *PostgresPaymentRepository) MarkRefundFailed(ctx context.Context, paymentId int, reason string) error {
	query := `
		UPDATE payments
		SET status = $1, fail_reason = $2, updated_at = NOW()
		WHERE id = $3
	`

	_, err := p.db.Exec(ctx, query, domain.PaymentStatusFailed, reason, paymentId)

	return err
}
