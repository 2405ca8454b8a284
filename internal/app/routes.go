package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)

	r.Use(middleware.RequestID)
	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(app.logRequest)
	r.Use(app.recoverPanic)
	r.Use(app.sessionManager.LoadAndSave)

	r.Get("/health", app.GetHealth)

	r.Post("/auth/login", app.Login)
	r.Post("/auth/logout", app.Logout)

	r.Get("/screenings/{screeningId}/seats", app.GetSeatMapByScreening)

	r.With(app.requireAuthentication).Route("/screenings/{screeningId}", func(r chi.Router) {
		r.Post("/holds", app.CreateSeatHoldsHandler)
		r.Delete("/holds", app.ReleaseSeatHoldsHandler)
		r.Post("/reservations", app.CreateReservationHandler)
	})

	r.With(app.requireAuthentication).Route("/payments/verification", func(r chi.Router) {
		r.Post("/", app.VerifyPaymentHandler)
	})

	r.With(app.requireAuthentication).Route("/users/me/reservations", func(r chi.Router) {
		r.Get("/", app.GetReservationsOfUserHandler)
		r.Get("/{reservationId}", app.GetUserReservationById)
		r.Delete("/{reservationId}", app.CancelReservationHandler)
	})

	// TODO: gate these behind an operator role once accounts carry one.
	r.With(app.requireAuthentication).Route("/admin", func(r chi.Router) {
		r.Post("/screenings/{screeningId}/cancellation", app.CancelScreeningHandler)
		r.Patch("/seats/{seatId}", app.UpdateSeatMaintenanceHandler)
	})

	return r
}
