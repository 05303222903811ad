package wire

import (
	"diviner-booking/internal/adaptor"
	"diviner-booking/internal/data/entity"
	"diviner-booking/internal/data/repository"
	"diviner-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/services/{id}/slots?date=YYYY-MM-DD - bookable starts on a day
	r.Get("/api/services/{id}/slots", bookingHandler.ListAvailableSlots)

	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// GET /api/bookings/{id} - client or diviner of the booking
		r.Get("/api/bookings/{id}", bookingHandler.GetBooking)

		// ==================== CLIENT ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(entity.RoleClient, log))

			r.Get("/api/services/{id}/quote", bookingHandler.QuotePrice)
			r.Post("/api/bookings", bookingHandler.CreateBooking)
			r.Get("/api/bookings", bookingHandler.ListClientBookings)
			r.Put("/api/bookings/{id}/cancel", bookingHandler.CancelBooking)
		})
	})
}

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// POST /api/payments/webhook - authenticated by the gateway signature
	r.Post("/api/payments/webhook", paymentHandler.Webhook)

	r.With(
		middleware.AuthSession(repo.Session, log),
		middleware.RequireRole(entity.RoleClient, log),
	).Post("/api/payments/intent", paymentHandler.CreatePaymentIntent)
}

func wireReview(
	r chi.Router,
	reviewHandler *adaptor.ReviewHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// GET /api/diviners/{id}/reviews - visible reviews, newest first (public)
	r.Get("/api/diviners/{id}/reviews", reviewHandler.ListDivinerReviews)

	r.With(
		middleware.AuthSession(repo.Session, log),
		middleware.RequireRole(entity.RoleClient, log),
	).Post("/api/reviews", reviewHandler.CreateReview)
}
