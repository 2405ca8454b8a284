package app

import (
	"errors"
	"net/http"

	"github.com/megacine/reservation-system/api"
	"github.com/megacine/reservation-system/internal/domain"
)

func (app *Application) GetSeatMapByScreening(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	screeningId, err := app.readIDParam(r, "screeningId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	screening, err := app.screeningRepo.GetById(r.Context(), nil, screeningId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrScreeningNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	seats, err := app.seatRepo.GetByScreening(r.Context(), screeningId)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if len(seats) == 0 {
		logger.Warn("seat map not found for screening", "screening_id", screeningId)
		app.notFoundResponse(w, r)
		return
	}

	seatIds := make([]int, len(seats))
	for i := range seats {
		seatIds[i] = seats[i].ID
	}

	held, err := app.holdStore.Owners(r.Context(), seatIds)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := toSeatMapResponse(screening, seats, held)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toSeatMapResponse(
	screening *domain.Screening,
	seats []domain.ScreeningSeat,
	held map[int]int) api.SeatMapResponse {

	return api.SeatMapResponse{
		ScreeningId: screening.ID,
		MovieTitle:  screening.MovieTitle,
		TheaterName: screening.TheaterName,
		HallName:    screening.HallName,
		StartTime:   screening.StartTime,
		SeatRows:    toSeatRows(seats, held),
	}
}

func toSeatRows(seats []domain.ScreeningSeat, held map[int]int) []api.SeatRow {
	// Seats are pre-sorted by Row,Column (ascending).
	// This allows us to process them in a single pass without additional sorting or mapping.

	var seatRows []api.SeatRow
	currentRow := api.SeatRow{Row: seats[0].Row}

	for _, v := range seats {
		if v.Row != currentRow.Row {
			seatRows = append(seatRows, currentRow)
			currentRow = api.SeatRow{Row: v.Row}
		}

		_, isHeld := held[v.ID]

		currentRow.Seats = append(currentRow.Seats, api.Seat{
			Id:        v.ID,
			Row:       v.Row,
			Column:    v.Col,
			Type:      v.SeatType,
			Price:     v.Price,
			Available: v.Status == domain.SeatStatusAvailable && !isHeld,
		})
	}

	seatRows = append(seatRows, currentRow)

	return seatRows
}

// UpdateSeatMaintenanceHandler moves a single seat in or out of maintenance.
func (app *Application) UpdateSeatMaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	seatId, err := app.readIDParam(r, "seatId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.SeatMaintenanceRequest

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

	seat, err := app.seatRepo.GetById(r.Context(), seatId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSeatNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	// The transition methods guard against the snapshot we read; the guarded
	// update below re-checks against the live row so a reservation committing
	// in between cannot be overwritten.
	var from []domain.SeatStatus

	if input.Status == string(domain.SeatStatusFixing) {
		err = seat.MarkFixing()
		from = []domain.SeatStatus{domain.SeatStatusAvailable, domain.SeatStatusFixing}
	} else {
		err = seat.MarkRestored()
		from = []domain.SeatStatus{domain.SeatStatusFixing}
	}

	if err != nil {
		app.editConflictResponse(w, r)
		return
	}

	err = app.seatRepo.UpdateStatus(r.Context(), seat.ID, from, seat.Status)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
