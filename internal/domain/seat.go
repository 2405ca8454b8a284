package domain

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "AVAILABLE"
	SeatStatusReserved  SeatStatus = "RESERVED"
	SeatStatusFixing    SeatStatus = "FIXING"
)

// ScreeningSeat is one physical seat for one screening, the unit that
// actually gets reserved. Its status only ever changes through the
// transition methods below.
type ScreeningSeat struct {
	ID          int
	ScreeningID int
	SeatID      int
	Row         int
	Col         int
	SeatType    string
	Price       decimal.Decimal
	Status      SeatStatus
}

// Reserve moves the seat to RESERVED. Only an AVAILABLE seat can be
// reserved; a FIXING seat in particular never can.
func (s *ScreeningSeat) Reserve() error {
	if s.Status != SeatStatusAvailable {
		return ErrSeatNotAvailable
	}

	s.Status = SeatStatusReserved

	return nil
}

// Release returns the seat to AVAILABLE. It is idempotent and is used both
// for cancellations and for cleanup after abandoned checkouts.
func (s *ScreeningSeat) Release() {
	s.Status = SeatStatusAvailable
}

// MarkFixing takes the seat out of service. Reserved seats cannot be taken
// out from under a customer.
func (s *ScreeningSeat) MarkFixing() error {
	if s.Status != SeatStatusAvailable && s.Status != SeatStatusFixing {
		return ErrSeatCannotUpdate
	}

	s.Status = SeatStatusFixing

	return nil
}

// MarkRestored returns a seat from maintenance to AVAILABLE.
func (s *ScreeningSeat) MarkRestored() error {
	if s.Status != SeatStatusFixing {
		return ErrSeatCannotUpdate
	}

	s.Status = SeatStatusAvailable

	return nil
}

type SeatRepository interface {
	GetById(ctx context.Context, id int) (*ScreeningSeat, error)
	GetByScreening(ctx context.Context, screeningId int) ([]ScreeningSeat, error)
	GetByIdsAndScreening(ctx context.Context, seatIds []int, screeningId int) ([]ScreeningSeat, error)

	// GetByIdsAndScreeningForUpdate locks the selected rows for the duration
	// of the surrounding transaction.
	GetByIdsAndScreeningForUpdate(ctx context.Context, tx pgx.Tx, seatIds []int, screeningId int) ([]ScreeningSeat, error)

	// UpdateStatus flips the seat to the given status only while its current
	// status is still one of from, so a reservation committing between read
	// and write cannot be overwritten. Returns ErrEditConflict when the row
	// no longer qualifies.
	UpdateStatus(ctx context.Context, seatId int, from []SeatStatus, to SeatStatus) error
	UpdateStatuses(ctx context.Context, tx pgx.Tx, seatIds []int, status SeatStatus) error
}
