package app

import (
	"errors"
	"net/http"

	"github.com/megacine/reservation-system/api"
	"github.com/megacine/reservation-system/internal/domain"
)

func (app *Application) CreateReservationHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	screeningId, err := app.readIDParam(r, "screeningId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.CreateReservationRequest

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

	group, payment, err := app.bookingService.CreateReservation(r.Context(), userId, screeningId, input.SeatIdList)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrScreeningNotFound), errors.Is(err, domain.ErrSeatNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrScreeningNotReservable):
			app.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, domain.ErrSeatNotAvailable):
			app.errorResponse(w, r, http.StatusConflict, err.Error())
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	logger.Info("reservation created",
		"group_id", group.ID, "screening_id", screeningId, "seat_count", len(group.Reservations))

	resp := api.ReservationResponse{
		ReservationGroupId: group.ID,
		MerchantUid:        payment.MerchantUid,
		ExpectedAmount:     payment.ExpectedAmount,
		Status:             string(group.Status),
		SeatCount:          len(group.Reservations),
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetReservationsOfUserHandler(w http.ResponseWriter, r *http.Request) {
	userId := app.contextGetUserId(r)

	page, pageSize := app.readPagination(r)
	pagination := domain.Pagination{Page: page, PageSize: pageSize}

	reservations, metadata, err := app.reservationRepo.GetSummariesByUserId(r.Context(), userId, pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.UserReservationsResponse{
		Reservations: toReservationSummaries(reservations),
		Metadata:     toApiMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetUserReservationById(w http.ResponseWriter, r *http.Request) {
	reservationId, err := app.readIDParam(r, "reservationId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	userId := app.contextGetUserId(r)

	detail, err := app.reservationRepo.GetDetailByIdAndUserId(r.Context(), reservationId, userId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrReservationNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	resp := toReservationDetailResponse(detail)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CancelReservationHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	reservationId, err := app.readIDParam(r, "reservationId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.CancelReservationRequest

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

	reason := input.Reason
	if reason == "" {
		reason = "cancelled by customer"
	}

	userId := app.contextGetUserId(r)

	payment, err := app.paymentService.CancelReservation(r.Context(), userId, reservationId, reason)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrReservationNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrReservationCancelNotAllowed):
			app.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, domain.ErrPaymentRefundNotAllowed):
			app.errorResponse(w, r, http.StatusConflict, err.Error())
		case errors.Is(err, domain.ErrPaymentRefundFailed):
			app.errorResponse(w, r, http.StatusBadGateway,
				"The refund could not be completed, please try again later")
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	logger.Info("reservation cancelled", "group_id", reservationId)

	if payment == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toPaymentResponse(payment), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toReservationSummaries(reservations []domain.ReservationSummary) []api.ReservationSummary {
	summaries := make([]api.ReservationSummary, len(reservations))

	for i, v := range reservations {
		summaries[i] = api.ReservationSummary{
			Id:          v.GroupID,
			MovieTitle:  v.MovieTitle,
			TheaterName: v.TheaterName,
			HallName:    v.HallName,
			StartTime:   v.StartTime,
			TotalPrice:  v.TotalPrice,
			Status:      string(v.Status),
			SeatCount:   v.SeatCount,
			CreatedAt:   v.CreatedAt,
		}
	}

	return summaries
}

func toReservationDetailResponse(detail *domain.ReservationDetail) api.ReservationDetailResponse {
	seats := make([]api.ReservationSeat, len(detail.Seats))

	for i, v := range detail.Seats {
		seats[i] = api.ReservationSeat{
			Row:      v.Row,
			Column:   v.Col,
			SeatType: v.SeatType,
			Price:    v.Price,
		}
	}

	return api.ReservationDetailResponse{
		Id:          detail.GroupID,
		MovieTitle:  detail.MovieTitle,
		TheaterName: detail.TheaterName,
		HallName:    detail.HallName,
		StartTime:   detail.StartTime,
		TotalPrice:  detail.TotalPrice,
		Status:      string(detail.Status),
		Seats:       seats,
		CreatedAt:   detail.CreatedAt,
	}
}

func toApiMetadata(metadata *domain.Metadata) api.Metadata {
	if metadata == nil {
		return api.Metadata{}
	}

	return api.Metadata{
		CurrentPage:  metadata.CurrentPage,
		FirstPage:    metadata.FirstPage,
		LastPage:     metadata.LastPage,
		PageSize:     metadata.PageSize,
		TotalRecords: metadata.TotalRecords,
	}
}
