package adaptor

import (
	"net/http"

	"diviner-booking/internal/dto/request"
	"diviner-booking/internal/usecase"
	"diviner-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	base
	service usecase.ReviewService
}

func NewReviewHandler(service usecase.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		base:    base{log: log.With(zap.String("handler", "review"))},
		service: service,
	}
}

// CreateReview handles POST /api/reviews (client)
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateReviewRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	review, err := h.service.CreateReview(r.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(w, err, "create review")
		return
	}

	utils.ResponseCreated(w, "Review created", review)
}

// ListDivinerReviews handles GET /api/diviners/{id}/reviews (public)
func (h *ReviewHandler) ListDivinerReviews(w http.ResponseWriter, r *http.Request) {
	req := paginatedRequest(r)

	reviews, err := h.service.ListDivinerReviews(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, err, "list diviner reviews")
		return
	}

	utils.ResponseSuccess(w, "success", reviews)
}
