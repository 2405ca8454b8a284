package domain

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// ReservationCutoff is how long before the show starts that reservations
// close. The threshold comes from the business side and has never been
// revisited, so it is exposed as a constant rather than hidden in code.
const ReservationCutoff = 10 * time.Minute

type ScreeningStatus string

const (
	ScreeningStatusScheduled ScreeningStatus = "SCHEDULED"
	ScreeningStatusEnded     ScreeningStatus = "ENDED"
	ScreeningStatusCanceled  ScreeningStatus = "CANCELED"
)

type Screening struct {
	ID          int
	MovieTitle  string
	TheaterName string
	HallName    string
	StartTime   time.Time
	EndTime     time.Time
	Status      ScreeningStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidateReservable reports whether seats of this screening may still be
// reserved at the given moment. Reservations close ReservationCutoff before
// the show starts.
func (s *Screening) ValidateReservable(now time.Time) error {
	if s.Status != ScreeningStatusScheduled {
		return ErrScreeningNotReservable
	}

	if !now.Before(s.StartTime.Add(-ReservationCutoff)) {
		return ErrScreeningNotReservable
	}

	return nil
}

func (s *Screening) Cancel() {
	s.Status = ScreeningStatusCanceled
}

type ScreeningRepository interface {
	GetById(ctx context.Context, tx pgx.Tx, id int) (*Screening, error)
	GetStartTimeByGroup(ctx context.Context, tx pgx.Tx, groupId, userId int) (time.Time, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, screening *Screening) error
	EndPastScreenings(ctx context.Context, now time.Time) (int, error)
}
