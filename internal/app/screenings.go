package app

import (
	"errors"
	"net/http"

	"github.com/megacine/reservation-system/api"
	"github.com/megacine/reservation-system/internal/domain"
)

// CancelScreeningHandler withdraws a screening and refunds every active
// reservation on it in full.
func (app *Application) CancelScreeningHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	screeningId, err := app.readIDParam(r, "screeningId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.CancelScreeningRequest

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

	err = app.bookingService.CancelScreening(r.Context(), screeningId, input.Reason)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrScreeningNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrEditConflict):
			app.editConflictResponse(w, r)
		case errors.Is(err, domain.ErrPaymentRefundFailed):
			// The screening itself is cancelled; the stuck refunds are marked
			// and can be retried by cancelling again.
			app.errorResponse(w, r, http.StatusBadGateway,
				"The screening was cancelled but some refunds could not be completed")
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	logger.Info("screening cancelled", "screening_id", screeningId)

	w.WriteHeader(http.StatusNoContent)
}
