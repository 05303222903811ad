package adaptor

import (
	"net/http"

	"diviner-booking/internal/dto/request"
	"diviner-booking/internal/usecase"
	"diviner-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type DivinerHandler struct {
	base
	service usecase.DivinerService
}

func NewDivinerHandler(service usecase.DivinerService, log *zap.Logger) *DivinerHandler {
	return &DivinerHandler{
		base:    base{log: log.With(zap.String("handler", "diviner"))},
		service: service,
	}
}

// GetDiviner handles GET /api/diviners/{id} (public)
func (h *DivinerHandler) GetDiviner(w http.ResponseWriter, r *http.Request) {
	diviner, err := h.service.GetDiviner(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "get diviner")
		return
	}

	utils.ResponseSuccess(w, "success", diviner)
}

// ReplaceAvailability handles PUT /api/diviner/availability (diviner)
func (h *DivinerHandler) ReplaceAvailability(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.ReplaceAvailabilityRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	windows, err := h.service.ReplaceAvailability(r.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(w, err, "replace availability")
		return
	}

	utils.ResponseSuccess(w, "Availability updated", windows)
}

// CreateService handles POST /api/diviner/services (diviner)
func (h *DivinerHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateServiceRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	service, err := h.service.CreateService(r.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(w, err, "create service")
		return
	}

	utils.ResponseCreated(w, "Service created", service)
}

// UpdateService handles PUT /api/diviner/services/{id} (diviner)
func (h *DivinerHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.UpdateServiceRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	service, err := h.service.UpdateService(r.Context(), userID, chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, err, "update service")
		return
	}

	utils.ResponseSuccess(w, "Service updated", service)
}
