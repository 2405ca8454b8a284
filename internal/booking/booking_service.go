package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/megacine/reservation-system/internal/domain"
	"github.com/megacine/reservation-system/internal/repository"
)

// BookingService coordinates the reservation side of checkout: holding
// seats, turning holds into durable reservations, and the operator-driven
// cancellation of whole screenings.
type BookingService struct {
	txManager       repository.TxManager
	screeningRepo   domain.ScreeningRepository
	seatRepo        domain.SeatRepository
	reservationRepo domain.ReservationRepository
	paymentRepo     domain.PaymentRepository
	userRepo        domain.UserRepository
	holdStore       domain.SeatHoldStore
	gateway         domain.PaymentGateway
	logger          *slog.Logger
}

func NewBookingService(
	txManager repository.TxManager,
	screeningRepo domain.ScreeningRepository,
	seatRepo domain.SeatRepository,
	reservationRepo domain.ReservationRepository,
	paymentRepo domain.PaymentRepository,
	userRepo domain.UserRepository,
	holdStore domain.SeatHoldStore,
	gateway domain.PaymentGateway,
	logger *slog.Logger) *BookingService {

	return &BookingService{
		txManager:       txManager,
		screeningRepo:   screeningRepo,
		seatRepo:        seatRepo,
		reservationRepo: reservationRepo,
		paymentRepo:     paymentRepo,
		userRepo:        userRepo,
		holdStore:       holdStore,
		gateway:         gateway,
		logger:          logger,
	}
}

// HoldSeats gives the user a time-boxed claim on the seats before checkout.
// Every seat must belong to the screening and be AVAILABLE; the claim is
// all-or-nothing.
func (s *BookingService) HoldSeats(ctx context.Context, userId, screeningId int, seatIds []int) error {
	screening, err := s.screeningRepo.GetById(ctx, nil, screeningId)
	if err != nil {
		return err
	}

	err = screening.ValidateReservable(time.Now())
	if err != nil {
		return err
	}

	seats, err := s.seatRepo.GetByIdsAndScreening(ctx, seatIds, screeningId)
	if err != nil {
		return err
	}

	if len(seats) != len(seatIds) {
		return domain.ErrSeatNotFound
	}

	for i := range seats {
		if seats[i].Status != domain.SeatStatusAvailable {
			return domain.ErrSeatNotAvailable
		}
	}

	return s.holdStore.Acquire(ctx, seatIds, userId, domain.SeatHoldTTL)
}

// ReleaseHolds drops the user's holds, e.g. when they back out of checkout.
func (s *BookingService) ReleaseHolds(ctx context.Context, userId int, seatIds []int) error {
	return s.holdStore.Release(ctx, seatIds, userId)
}

// CreateReservation converts the user's holds into a PENDING reservation
// group with a READY payment attached. The seat rows are locked for the
// duration of the transaction; the holds themselves are released only after
// the transaction commits, so a rollback leaves the user's claim intact.
func (s *BookingService) CreateReservation(
	ctx context.Context,
	userId, screeningId int,
	seatIds []int) (*domain.ReservationGroup, *domain.Payment, error) {

	user, err := s.userRepo.GetById(ctx, userId)
	if err != nil {
		return nil, nil, err
	}

	var (
		group   *domain.ReservationGroup
		payment *domain.Payment
	)

	err = s.txManager.RunInTx(ctx, func(tx pgx.Tx, hooks *repository.AfterCommit) error {
		screening, err := s.screeningRepo.GetById(ctx, tx, screeningId)
		if err != nil {
			return err
		}

		err = screening.ValidateReservable(time.Now())
		if err != nil {
			return err
		}

		seats, err := s.seatRepo.GetByIdsAndScreeningForUpdate(ctx, tx, seatIds, screeningId)
		if err != nil {
			return err
		}

		if len(seats) != len(seatIds) {
			return domain.ErrSeatNotFound
		}

		owners, err := s.holdStore.Owners(ctx, seatIds)
		if err != nil {
			return err
		}

		for _, seatId := range seatIds {
			if owners[seatId] != userId {
				return domain.ErrSeatNotAvailable
			}
		}

		group = domain.NewReservationGroup(userId)

		for i := range seats {
			err = seats[i].Reserve()
			if err != nil {
				return err
			}

			group.AddReservation(&seats[i])
		}

		err = s.seatRepo.UpdateStatuses(ctx, tx, seatIds, domain.SeatStatusReserved)
		if err != nil {
			return err
		}

		err = s.reservationRepo.CreateGroup(ctx, tx, group)
		if err != nil {
			return err
		}

		payment = domain.NewPayment(group, user)

		err = s.paymentRepo.Create(ctx, tx, payment)
		if err != nil {
			return err
		}

		hooks.Register(func(ctx context.Context) {
			err := s.holdStore.Release(ctx, seatIds, userId)
			if err != nil {
				s.logger.Error("failed to release seat holds after reservation",
					"user_id", userId, "screening_id", screeningId, "error", err)
			}
		})

		return nil
	})

	if err != nil {
		return nil, nil, err
	}

	return group, payment, nil
}

// CancelScreening is the operator path: the screening is withdrawn and every
// active reservation group on it is cancelled with a full refund, ignoring
// the tiered schedule. Cancelling an already cancelled screening is a no-op.
func (s *BookingService) CancelScreening(ctx context.Context, screeningId int, reason string) error {
	var groupIds []int

	err := s.txManager.RunInTx(ctx, func(tx pgx.Tx, hooks *repository.AfterCommit) error {
		screening, err := s.screeningRepo.GetById(ctx, tx, screeningId)
		if err != nil {
			return err
		}

		if screening.Status == domain.ScreeningStatusEnded {
			return domain.ErrEditConflict
		}

		// Re-cancelling is allowed: groups whose refund failed on a previous
		// attempt get settled on retry.
		if screening.Status != domain.ScreeningStatusCanceled {
			screening.Cancel()

			err = s.screeningRepo.UpdateStatus(ctx, tx, screening)
			if err != nil {
				return err
			}
		}

		groups, err := s.reservationRepo.GetGroupsByScreeningForUpdate(ctx, tx, screeningId)
		if err != nil {
			return err
		}

		for _, group := range groups {
			groupIds = append(groupIds, group.ID)
		}

		return nil
	})

	if err != nil {
		return err
	}

	// Once the status flip above commits, no new reservations can appear on
	// this screening, so each group can be settled in its own transaction. A
	// failed refund only blocks its own group.
	var cancelErrs []error

	for _, groupId := range groupIds {
		err := s.cancelGroupWithFullRefund(ctx, groupId, reason)
		if err != nil {
			s.logger.Error("failed to cancel reservation group for cancelled screening",
				"screening_id", screeningId, "group_id", groupId, "error", err)
			cancelErrs = append(cancelErrs, err)
		}
	}

	return errors.Join(cancelErrs...)
}

func (s *BookingService) cancelGroupWithFullRefund(ctx context.Context, groupId int, reason string) error {
	var (
		failedPaymentId int
		failReason      string
	)

	err := s.txManager.RunInTx(ctx, func(tx pgx.Tx, hooks *repository.AfterCommit) error {
		payment, err := s.paymentRepo.GetByGroupIdForUpdate(ctx, tx, groupId)
		if err != nil && !errors.Is(err, domain.ErrPaymentNotFound) {
			return err
		}

		if payment != nil {
			// FAILED with a gateway id means an earlier refund attempt
			// failed; it is retried here like a completed payment.
			refundable := payment.Status == domain.PaymentStatusCompleted ||
				(payment.Status == domain.PaymentStatusFailed && payment.GatewayPaymentID != nil)

			switch {
			case refundable:
				result, err := s.gateway.Refund(ctx, *payment.GatewayPaymentID, payment.PaidAmount, reason)
				if err != nil {
					failedPaymentId = payment.ID
					failReason = fmt.Sprintf("%s: %s", reason, err)
					return fmt.Errorf("%w: %v", domain.ErrPaymentRefundFailed, err)
				}

				payment.MarkCancelled(result.Amount, reason, result.CancelledAt)

				err = s.paymentRepo.Update(ctx, tx, payment)
				if err != nil {
					return err
				}
			case payment.Status == domain.PaymentStatusReady:
				payment.MarkFailed(reason)

				err = s.paymentRepo.Update(ctx, tx, payment)
				if err != nil {
					return err
				}
			}
		}

		return s.reservationRepo.CancelGroupAndReleaseSeats(ctx, tx, groupId)
	})

	// The transaction that failed the refund rolled back, so the FAILED mark
	// must be written outside of it or it is lost with everything else.
	if err != nil && failedPaymentId != 0 {
		markErr := s.paymentRepo.MarkRefundFailed(ctx, failedPaymentId, failReason)
		if markErr != nil {
			s.logger.Error("failed to record refund failure",
				"payment_id", failedPaymentId, "error", markErr)
		}
	}

	return err
}
