package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/megacine/reservation-system/internal/domain"
	"github.com/megacine/reservation-system/internal/mailer"
	"github.com/megacine/reservation-system/internal/repository"
)

const paymentConfirmationTemplate = "payment_confirmation.tmpl"

// PaymentService settles payments against the gateway: verifying that a
// client-reported payment really happened, and unwinding paid reservations
// through refunds.
type PaymentService struct {
	txManager       repository.TxManager
	screeningRepo   domain.ScreeningRepository
	reservationRepo domain.ReservationRepository
	paymentRepo     domain.PaymentRepository
	holdStore       domain.SeatHoldStore
	gateway         domain.PaymentGateway
	mailer          mailer.Mailer
	logger          *slog.Logger
}

func NewPaymentService(
	txManager repository.TxManager,
	screeningRepo domain.ScreeningRepository,
	reservationRepo domain.ReservationRepository,
	paymentRepo domain.PaymentRepository,
	holdStore domain.SeatHoldStore,
	gateway domain.PaymentGateway,
	mailer mailer.Mailer,
	logger *slog.Logger) *PaymentService {

	return &PaymentService{
		txManager:       txManager,
		screeningRepo:   screeningRepo,
		reservationRepo: reservationRepo,
		paymentRepo:     paymentRepo,
		holdStore:       holdStore,
		gateway:         gateway,
		mailer:          mailer,
		logger:          logger,
	}
}

// VerifyAndCompletePayment reconciles a client-reported gateway transaction
// against the local payment record. The gateway record must be paid and its
// amount must equal the expected amount to the cent; any mismatch finalizes
// the payment as FAILED and cancels the reservation in the same transaction.
// Verifying an already finalized payment changes nothing: a COMPLETED
// payment is returned as-is, anything else reports a conflict.
//
// The reservation group is loaded scoped to the calling user before the
// payment is touched, so a merchant uid alone reveals nothing about
// another user's payment.
//
// Gateway lookup errors roll the transaction back untouched, so the client
// can simply retry.
func (s *PaymentService) VerifyAndCompletePayment(
	ctx context.Context,
	userId, groupId int,
	merchantUid, gatewayPaymentId string) (*domain.Payment, error) {

	var (
		result    *domain.Payment
		verifyErr error
	)

	err := s.txManager.RunInTx(ctx, func(tx pgx.Tx, hooks *repository.AfterCommit) error {
		group, err := s.reservationRepo.GetGroupByIdAndUserForUpdate(ctx, tx, groupId, userId)
		if err != nil {
			return err
		}

		payment, err := s.paymentRepo.GetByMerchantUidForUpdate(ctx, tx, merchantUid)
		if err != nil {
			return err
		}

		if payment.IsFinalized() {
			if payment.Status == domain.PaymentStatusCompleted {
				result = payment
				return nil
			}

			verifyErr = domain.ErrEditConflict
			return nil
		}

		// The merchant uid belongs to some other reservation. Reject without
		// touching either record: the payment is another checkout's, and the
		// caller's group has done nothing wrong.
		if payment.GroupID != group.ID {
			return domain.ErrPaymentInfoMismatch
		}

		// fail finalizes the payment and tears down the reservation, then
		// commits: a mismatch outcome must survive even though the request
		// itself fails.
		fail := func(reason string) error {
			payment.MarkFailed(reason)

			err := s.paymentRepo.Update(ctx, tx, payment)
			if err != nil {
				return err
			}

			err = s.reservationRepo.CancelGroupAndReleaseSeats(ctx, tx, group.ID)
			if err != nil {
				return err
			}

			verifyErr = domain.ErrPaymentInfoMismatch
			return nil
		}

		if group.IsCancelled() {
			payment.MarkFailed("reservation is already cancelled")

			err := s.paymentRepo.Update(ctx, tx, payment)
			if err != nil {
				return err
			}

			verifyErr = domain.ErrEditConflict
			return nil
		}

		info, err := s.gateway.GetPaymentInfo(ctx, gatewayPaymentId)
		if err != nil {
			return err
		}

		if info.ID != gatewayPaymentId {
			return fail(fmt.Sprintf("gateway returned transaction %q for %q", info.ID, gatewayPaymentId))
		}

		if !info.Paid {
			return fail(fmt.Sprintf("gateway reports status %q, not paid", info.Status))
		}

		if !info.Amount.Equal(payment.ExpectedAmount) {
			return fail(fmt.Sprintf("gateway amount %s does not match expected amount %s",
				info.Amount, payment.ExpectedAmount))
		}

		payment.MarkCompleted(info)

		err = s.paymentRepo.Update(ctx, tx, payment)
		if err != nil {
			return err
		}

		err = group.MarkPaid()
		if err != nil {
			return err
		}

		err = s.reservationRepo.UpdateGroupStatus(ctx, tx, group)
		if err != nil {
			return err
		}

		seatIds := make([]int, 0, len(group.Reservations))
		for _, r := range group.Reservations {
			seatIds = append(seatIds, r.ScreeningSeatID)
		}

		hooks.Register(func(ctx context.Context) {
			err := s.holdStore.Release(ctx, seatIds, userId)
			if err != nil {
				s.logger.Error("failed to release seat holds after payment",
					"user_id", userId, "group_id", group.ID, "error", err)
			}

			s.sendConfirmationEmail(ctx, payment, group.ID, userId)
		})

		result = payment
		return nil
	})

	if err != nil {
		return nil, err
	}

	if verifyErr != nil {
		return nil, verifyErr
	}

	return result, nil
}

func (s *PaymentService) sendConfirmationEmail(ctx context.Context, payment *domain.Payment, groupId, userId int) {
	detail, err := s.reservationRepo.GetDetailByIdAndUserId(ctx, groupId, userId)
	if err != nil {
		s.logger.Error("failed to load reservation detail for confirmation email",
			"group_id", groupId, "error", err)
		return
	}

	data := map[string]any{
		"Name":        payment.BuyerName,
		"MovieTitle":  detail.MovieTitle,
		"TheaterName": detail.TheaterName,
		"HallName":    detail.HallName,
		"StartTime":   detail.StartTime.Format("Jan 2, 2006 15:04"),
		"SeatCount":   len(detail.Seats),
		"TotalPrice":  detail.TotalPrice,
		"MerchantUid": payment.MerchantUid,
	}

	err = s.mailer.Send(payment.BuyerEmail, paymentConfirmationTemplate, data)
	if err != nil {
		s.logger.Error("failed to send payment confirmation email",
			"group_id", groupId, "error", err)
	}
}

// CancelReservation is the user path: the group is cancelled, its seats
// freed, and a completed payment refunded on the tiered schedule based on
// how far ahead of the showtime the cancellation lands. Cancelling an
// already cancelled group is a no-op. A paid reservation inside the final
// ten minutes, or after the show has started, can no longer be cancelled.
// Only a COMPLETED payment (or a FAILED one still carrying a gateway id,
// i.e. an earlier refund that did not go through) can be refunded; any
// other finalized payment rejects the cancellation.
func (s *PaymentService) CancelReservation(
	ctx context.Context,
	userId, groupId int,
	reason string) (*domain.Payment, error) {

	var (
		result          *domain.Payment
		failedPaymentId int
		failReason      string
	)

	err := s.txManager.RunInTx(ctx, func(tx pgx.Tx, hooks *repository.AfterCommit) error {
		group, err := s.reservationRepo.GetGroupByIdAndUserForUpdate(ctx, tx, groupId, userId)
		if err != nil {
			return err
		}

		if group.IsCancelled() {
			return nil
		}

		startTime, err := s.screeningRepo.GetStartTimeByGroup(ctx, tx, groupId, userId)
		if err != nil {
			return err
		}

		now := time.Now()
		if !now.Before(startTime) {
			return domain.ErrReservationCancelNotAllowed
		}

		payment, err := s.paymentRepo.GetByGroupIdForUpdate(ctx, tx, group.ID)
		if err != nil && !errors.Is(err, domain.ErrPaymentNotFound) {
			return err
		}

		if payment != nil {
			// A FAILED payment that still carries a gateway id is a refund
			// that failed earlier; retrying the cancellation retries the
			// refund.
			refundable := payment.Status == domain.PaymentStatusCompleted ||
				(payment.Status == domain.PaymentStatusFailed && payment.GatewayPaymentID != nil)

			switch {
			case payment.Status == domain.PaymentStatusReady:
				payment.MarkFailed(reason)
			case !refundable:
				return domain.ErrPaymentRefundNotAllowed
			default:
				refundAmount := RefundAmount(startTime.Sub(now), payment.PaidAmount)
				if !refundAmount.IsPositive() {
					return domain.ErrReservationCancelNotAllowed
				}

				refund, err := s.gateway.Refund(ctx, *payment.GatewayPaymentID, refundAmount, reason)
				if err != nil {
					failedPaymentId = payment.ID
					failReason = fmt.Sprintf("%s: %s", reason, err)
					return fmt.Errorf("%w: %v", domain.ErrPaymentRefundFailed, err)
				}

				payment.MarkCancelled(refund.Amount, reason, refund.CancelledAt)
			}

			err = s.paymentRepo.Update(ctx, tx, payment)
			if err != nil {
				return err
			}
		}

		err = s.reservationRepo.CancelGroupAndReleaseSeats(ctx, tx, group.ID)
		if err != nil {
			return err
		}

		result = payment
		return nil
	})

	// Persist the FAILED mark outside the rolled-back transaction so the
	// failed refund stays visible.
	if err != nil && failedPaymentId != 0 {
		markErr := s.paymentRepo.MarkRefundFailed(ctx, failedPaymentId, failReason)
		if markErr != nil {
			s.logger.Error("failed to record refund failure",
				"payment_id", failedPaymentId, "error", markErr)
		}
	}

	if err != nil {
		return nil, err
	}

	return result, nil
}
