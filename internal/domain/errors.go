package domain

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrEditConflict   = errors.New("edit conflict")

	ErrScreeningNotFound      = errors.New("screening not found")
	ErrScreeningNotReservable = errors.New("screening is not open for reservation")

	ErrSeatNotFound     = errors.New("seat(s) not found for screening")
	ErrSeatNotAvailable = errors.New("seat(s) are not available")
	ErrSeatAlreadyHeld  = errors.New("seat(s) are already held by another user")
	ErrSeatCannotUpdate = errors.New("seat cannot be moved to the requested maintenance state")

	ErrReservationNotFound         = errors.New("reservation not found")
	ErrReservationCancelNotAllowed = errors.New("reservation can no longer be cancelled")

	ErrPaymentNotFound         = errors.New("payment not found")
	ErrPaymentInfoMismatch     = errors.New("payment information does not match the gateway record")
	ErrPaymentRefundNotAllowed = errors.New("payment is not in a refundable state")
	ErrPaymentRefundFailed     = errors.New("payment gateway refused or failed the refund")
)
