package app

import (
	"errors"
	"net/http"

	"github.com/megacine/reservation-system/api"
	"github.com/megacine/reservation-system/internal/domain"
)

func (app *Application) CreateSeatHoldsHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	screeningId, err := app.readIDParam(r, "screeningId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.SeatHoldRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	userId := app.contextGetUserId(r)

	err = app.bookingService.HoldSeats(r.Context(), userId, screeningId, input.SeatIdList)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrScreeningNotFound), errors.Is(err, domain.ErrSeatNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrScreeningNotReservable):
			app.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, domain.ErrSeatNotAvailable), errors.Is(err, domain.ErrSeatAlreadyHeld):
			app.errorResponse(w, r, http.StatusConflict, err.Error())
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	logger.Info("seats held", "screening_id", screeningId, "seat_count", len(input.SeatIdList))

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) ReleaseSeatHoldsHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := app.readIDParam(r, "screeningId"); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.SeatHoldRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	userId := app.contextGetUserId(r)

	err = app.bookingService.ReleaseHolds(r.Context(), userId, input.SeatIdList)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
