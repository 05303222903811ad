package adaptor

import (
	"net/http"

	"diviner-booking/internal/dto/request"
	"diviner-booking/internal/usecase"
	"diviner-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	base
	service usecase.BookingService
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		base:    base{log: log.With(zap.String("handler", "booking"))},
		service: service,
	}
}

// CreateBooking handles POST /api/bookings (client)
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateBookingRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(w, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking created", booking)
}

// ListClientBookings handles GET /api/bookings (client)
func (h *BookingHandler) ListClientBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookings, err := h.service.ListClientBookings(r.Context(), userID, listBookingsRequest(r))
	if err != nil {
		h.handleServiceError(w, err, "list client bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// ListDivinerBookings handles GET /api/diviner/bookings (diviner)
func (h *BookingHandler) ListDivinerBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookings, err := h.service.ListDivinerBookings(r.Context(), userID, listBookingsRequest(r))
	if err != nil {
		h.handleServiceError(w, err, "list diviner bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// GetBooking handles GET /api/bookings/{id} (client or diviner of the booking)
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	booking, err := h.service.GetBooking(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// CancelBooking handles PUT /api/bookings/{id}/cancel (client)
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	// the reason is optional, so an empty body is fine
	var req request.CancelBookingRequest
	if r.ContentLength != 0 && !h.decodeAndValidate(w, r, &req) {
		return
	}

	booking, err := h.service.CancelBooking(r.Context(), userID, chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, err, "cancel booking")
		return
	}

	utils.ResponseSuccess(w, "Booking cancelled", booking)
}

// UpdateBookingStatus handles PUT /api/diviner/bookings/{id}/status (diviner)
func (h *BookingHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.UpdateBookingStatusRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	booking, err := h.service.UpdateBookingStatus(r.Context(), userID, chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, err, "update booking status")
		return
	}

	utils.ResponseSuccess(w, "Booking updated", booking)
}

// ListAvailableSlots handles GET /api/services/{id}/slots?date=YYYY-MM-DD (public)
func (h *BookingHandler) ListAvailableSlots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		utils.ResponseBadRequest(w, "date is required", nil)
		return
	}

	slots, err := h.service.ListAvailableSlots(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		h.handleServiceError(w, err, "list available slots")
		return
	}

	utils.ResponseSuccess(w, "success", slots)
}

// QuotePrice handles GET /api/services/{id}/quote (client)
func (h *BookingHandler) QuotePrice(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	quote, err := h.service.QuotePrice(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "quote price")
		return
	}

	utils.ResponseSuccess(w, "success", quote)
}

func paginatedRequest(r *http.Request) request.PaginatedRequest {
	query := r.URL.Query()
	return request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}
}

func listBookingsRequest(r *http.Request) *request.ListBookingsRequest {
	return &request.ListBookingsRequest{
		PaginatedRequest: paginatedRequest(r),
		Status:           r.URL.Query().Get("status"),
	}
}
