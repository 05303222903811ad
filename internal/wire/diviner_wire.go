package wire

import (
	"diviner-booking/internal/adaptor"
	"diviner-booking/internal/data/entity"
	"diviner-booking/internal/data/repository"
	"diviner-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireDiviner(
	r chi.Router,
	divinerHandler *adaptor.DivinerHandler,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/diviners/{id}", divinerHandler.GetDiviner)

	// ==================== DIVINER ROUTES ====================
	// the diviner's own schedule, services and bookings
	r.Route("/api/diviner", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))
		r.Use(middleware.RequireRole(entity.RoleDiviner, log))

		r.Put("/availability", divinerHandler.ReplaceAvailability)
		r.Post("/services", divinerHandler.CreateService)
		r.Put("/services/{id}", divinerHandler.UpdateService)
		r.Get("/bookings", bookingHandler.ListDivinerBookings)
		r.Put("/bookings/{id}/status", bookingHandler.UpdateBookingStatus)
	})
}
