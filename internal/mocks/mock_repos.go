package mocks

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/megacine/reservation-system/internal/domain"
	"github.com/megacine/reservation-system/internal/repository"
	"github.com/stretchr/testify/mock"
)

// MockTxManager runs the unit of work inline with a nil transaction and
// fires after-commit hooks when it succeeds, mirroring the production
// commit-then-run ordering without a database.
type MockTxManager struct {
	RunInTxFunc func(ctx context.Context, fn func(tx pgx.Tx, hooks *repository.AfterCommit) error) error
}

func (m *MockTxManager) RunInTx(ctx context.Context, fn func(tx pgx.Tx, hooks *repository.AfterCommit) error) error {
	if m.RunInTxFunc != nil {
		return m.RunInTxFunc(ctx, fn)
	}

	hooks := &repository.AfterCommit{}

	err := fn(nil, hooks)
	if err != nil {
		return err
	}

	hooks.Run(ctx)

	return nil
}

type MockScreeningRepository struct {
	mock.Mock
	domain.ScreeningRepository
}

func (m *MockScreeningRepository) GetById(ctx context.Context, tx pgx.Tx, id int) (*domain.Screening, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Screening), args.Error(1)
}

func (m *MockScreeningRepository) GetStartTimeByGroup(ctx context.Context, tx pgx.Tx, groupId, userId int) (time.Time, error) {
	args := m.Called(ctx, tx, groupId, userId)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockScreeningRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, screening *domain.Screening) error {
	args := m.Called(ctx, tx, screening)
	return args.Error(0)
}

func (m *MockScreeningRepository) EndPastScreenings(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

type MockSeatRepository struct {
	mock.Mock
	domain.SeatRepository
}

func (m *MockSeatRepository) GetById(ctx context.Context, id int) (*domain.ScreeningSeat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScreeningSeat), args.Error(1)
}

func (m *MockSeatRepository) GetByScreening(ctx context.Context, screeningId int) ([]domain.ScreeningSeat, error) {
	args := m.Called(ctx, screeningId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScreeningSeat), args.Error(1)
}

func (m *MockSeatRepository) GetByIdsAndScreening(ctx context.Context, seatIds []int, screeningId int) ([]domain.ScreeningSeat, error) {
	args := m.Called(ctx, seatIds, screeningId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScreeningSeat), args.Error(1)
}

func (m *MockSeatRepository) GetByIdsAndScreeningForUpdate(
	ctx context.Context,
	tx pgx.Tx,
	seatIds []int,
	screeningId int) ([]domain.ScreeningSeat, error) {

	args := m.Called(ctx, tx, seatIds, screeningId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScreeningSeat), args.Error(1)
}

func (m *MockSeatRepository) UpdateStatus(
	ctx context.Context,
	seatId int,
	from []domain.SeatStatus,
	to domain.SeatStatus) error {

	args := m.Called(ctx, seatId, from, to)
	return args.Error(0)
}

func (m *MockSeatRepository) UpdateStatuses(ctx context.Context, tx pgx.Tx, seatIds []int, status domain.SeatStatus) error {
	args := m.Called(ctx, tx, seatIds, status)
	return args.Error(0)
}

type MockReservationRepository struct {
	mock.Mock
	domain.ReservationRepository
}

func (m *MockReservationRepository) CreateGroup(ctx context.Context, tx pgx.Tx, group *domain.ReservationGroup) error {
	args := m.Called(ctx, tx, group)
	return args.Error(0)
}

func (m *MockReservationRepository) GetGroupByIdAndUserForUpdate(
	ctx context.Context,
	tx pgx.Tx,
	groupId, userId int) (*domain.ReservationGroup, error) {

	args := m.Called(ctx, tx, groupId, userId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReservationGroup), args.Error(1)
}

func (m *MockReservationRepository) GetGroupsByScreeningForUpdate(
	ctx context.Context,
	tx pgx.Tx,
	screeningId int) ([]domain.ReservationGroup, error) {

	args := m.Called(ctx, tx, screeningId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReservationGroup), args.Error(1)
}

func (m *MockReservationRepository) UpdateGroupStatus(ctx context.Context, tx pgx.Tx, group *domain.ReservationGroup) error {
	args := m.Called(ctx, tx, group)
	return args.Error(0)
}

func (m *MockReservationRepository) CancelGroupAndReleaseSeats(ctx context.Context, tx pgx.Tx, groupId int) error {
	args := m.Called(ctx, tx, groupId)
	return args.Error(0)
}

func (m *MockReservationRepository) GetSummariesByUserId(
	ctx context.Context,
	userId int,
	pagination domain.Pagination) ([]domain.ReservationSummary, *domain.Metadata, error) {

	args := m.Called(ctx, userId, pagination)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]domain.ReservationSummary), args.Get(1).(*domain.Metadata), args.Error(2)
}

func (m *MockReservationRepository) GetDetailByIdAndUserId(ctx context.Context, groupId, userId int) (*domain.ReservationDetail, error) {
	args := m.Called(ctx, groupId, userId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReservationDetail), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
	domain.PaymentRepository
}

func (m *MockPaymentRepository) Create(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	args := m.Called(ctx, tx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByMerchantUidForUpdate(ctx context.Context, tx pgx.Tx, merchantUid string) (*domain.Payment, error) {
	args := m.Called(ctx, tx, merchantUid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByGroupIdForUpdate(ctx context.Context, tx pgx.Tx, groupId int) (*domain.Payment, error) {
	args := m.Called(ctx, tx, groupId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Update(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	args := m.Called(ctx, tx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) MarkRefundFailed(ctx context.Context, paymentId int, reason string) error {
	args := m.Called(ctx, paymentId, reason)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
	domain.UserRepository
}

func (m *MockUserRepository) GetById(ctx context.Context, id int) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockSeatHoldStore struct {
	mock.Mock
	domain.SeatHoldStore
}

func (m *MockSeatHoldStore) Acquire(ctx context.Context, seatIds []int, userId int, ttl time.Duration) error {
	args := m.Called(ctx, seatIds, userId, ttl)
	return args.Error(0)
}

func (m *MockSeatHoldStore) Release(ctx context.Context, seatIds []int, userId int) error {
	args := m.Called(ctx, seatIds, userId)
	return args.Error(0)
}

func (m *MockSeatHoldStore) Owners(ctx context.Context, seatIds []int) (map[int]int, error) {
	args := m.Called(ctx, seatIds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]int), args.Error(1)
}
