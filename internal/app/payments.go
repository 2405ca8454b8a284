package app

import (
	"errors"
	"net/http"

	"github.com/megacine/reservation-system/api"
	"github.com/megacine/reservation-system/internal/domain"
)

func (app *Application) VerifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.PaymentVerificationRequest

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

	payment, err := app.paymentService.VerifyAndCompletePayment(
		r.Context(), userId, input.ReservationGroupId, input.MerchantUid, input.GatewayPaymentId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPaymentNotFound), errors.Is(err, domain.ErrReservationNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrPaymentInfoMismatch):
			logger.Warn("payment verification mismatch",
				"group_id", input.ReservationGroupId, "merchant_uid", input.MerchantUid)
			app.errorResponse(w, r, http.StatusConflict, err.Error())
		case errors.Is(err, domain.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	logger.Info("payment verified", "group_id", input.ReservationGroupId, "payment_id", payment.ID)

	err = app.writeJSON(w, http.StatusOK, toPaymentResponse(payment), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toPaymentResponse(payment *domain.Payment) api.PaymentResponse {
	return api.PaymentResponse{
		Id:                 payment.ID,
		ReservationGroupId: payment.GroupID,
		MerchantUid:        payment.MerchantUid,
		Status:             string(payment.Status),
		PaidAmount:         payment.PaidAmount,
		RefundAmount:       payment.RefundAmount,
		Provider:           payment.Provider,
		Method:             payment.Method,
		PaidAt:             payment.PaidAt,
		CancelledAt:        payment.CancelledAt,
	}
}
