package domain

import (
	"context"
	"time"
)

// SeatHoldTTL bounds how long a user may sit on selected seats before
// committing to payment. There is no renewal; a lapsed hold must be
// re-acquired.
const SeatHoldTTL = 5 * time.Minute

// SeatHoldStore gives one user a time-boxed claim on screening seats before
// the durable reservation exists.
type SeatHoldStore interface {
	// Acquire claims every seat for the user, all-or-nothing. Seats are
	// acquired in ascending id order so overlapping requests can never
	// deadlock each other. If any seat is held by someone else, every seat
	// acquired in this call is released again and ErrSeatAlreadyHeld is
	// returned. Re-acquiring a seat the user already holds succeeds without
	// touching its TTL.
	Acquire(ctx context.Context, seatIds []int, userId int, ttl time.Duration) error

	// Release drops the user's holds on the given seats. Holds owned by
	// other users are left alone.
	Release(ctx context.Context, seatIds []int, userId int) error

	// Owners reports the current holder of each seat. Seats without a hold
	// are absent from the result.
	Owners(ctx context.Context, seatIds []int) (map[int]int, error)
}
