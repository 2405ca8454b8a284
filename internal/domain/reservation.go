package domain

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusPaid      ReservationStatus = "PAID"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

// Reservation binds one screening seat to a reservation group with the price
// locked in at creation time.
type Reservation struct {
	ID              int
	GroupID         int
	ScreeningSeatID int
	Price           decimal.Decimal
	Cancelled       bool
	CreatedAt       time.Time
}

// ReservationGroup is the checkout unit: the seats one user reserved in one
// transaction, paid together.
type ReservationGroup struct {
	ID           int
	UserID       int
	TotalPrice   decimal.Decimal
	Status       ReservationStatus
	Reservations []Reservation
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewReservationGroup(userId int) *ReservationGroup {
	return &ReservationGroup{
		UserID:     userId,
		TotalPrice: decimal.Zero,
		Status:     ReservationStatusPending,
	}
}

// AddReservation appends a seat to the group and keeps TotalPrice equal to
// the sum of member prices. Adding the same seat twice is a no-op.
func (g *ReservationGroup) AddReservation(seat *ScreeningSeat) {
	for _, r := range g.Reservations {
		if r.ScreeningSeatID == seat.ID {
			return
		}
	}

	g.Reservations = append(g.Reservations, Reservation{
		ScreeningSeatID: seat.ID,
		Price:           seat.Price,
	})
	g.TotalPrice = g.TotalPrice.Add(seat.Price)
}

// MarkPaid advances the group after a verified payment. PENDING is the only
// state a payment can land on.
func (g *ReservationGroup) MarkPaid() error {
	if g.Status != ReservationStatusPending {
		return ErrEditConflict
	}

	g.Status = ReservationStatusPaid

	return nil
}

func (g *ReservationGroup) IsCancelled() bool {
	return g.Status == ReservationStatusCancelled
}

// ReservationSummary is one row of a user's reservation history.
type ReservationSummary struct {
	GroupID     int
	MovieTitle  string
	TheaterName string
	HallName    string
	StartTime   time.Time
	TotalPrice  decimal.Decimal
	Status      ReservationStatus
	SeatCount   int
	CreatedAt   time.Time
}

// ReservationDetail is the full view of one reservation group.
type ReservationDetail struct {
	GroupID     int
	MovieTitle  string
	TheaterName string
	HallName    string
	StartTime   time.Time
	TotalPrice  decimal.Decimal
	Status      ReservationStatus
	Seats       []ReservationDetailSeat
	CreatedAt   time.Time
}

type ReservationDetailSeat struct {
	Row      int
	Col      int
	SeatType string
	Price    decimal.Decimal
}

type ReservationRepository interface {
	// CreateGroup persists the group and its member reservations, filling in
	// the generated ids.
	CreateGroup(ctx context.Context, tx pgx.Tx, group *ReservationGroup) error

	GetGroupByIdAndUserForUpdate(ctx context.Context, tx pgx.Tx, groupId, userId int) (*ReservationGroup, error)
	GetGroupsByScreeningForUpdate(ctx context.Context, tx pgx.Tx, screeningId int) ([]ReservationGroup, error)

	UpdateGroupStatus(ctx context.Context, tx pgx.Tx, group *ReservationGroup) error

	// CancelGroupAndReleaseSeats marks the group CANCELLED, flags its member
	// reservations cancelled, and returns every member seat to AVAILABLE.
	// It is idempotent: cancelling an already cancelled group changes nothing.
	CancelGroupAndReleaseSeats(ctx context.Context, tx pgx.Tx, groupId int) error

	GetSummariesByUserId(ctx context.Context, userId int, pagination Pagination) ([]ReservationSummary, *Metadata, error)
	GetDetailByIdAndUserId(ctx context.Context, groupId, userId int) (*ReservationDetail, error)
}
