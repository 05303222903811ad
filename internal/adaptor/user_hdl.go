package adaptor

import (
	"net/http"

	"diviner-booking/internal/usecase"
	"diviner-booking/pkg/utils"

	"go.uber.org/zap"
)

type UserHandler struct {
	base
	service usecase.UserService
}

func NewUserHandler(service usecase.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		base:    base{log: log.With(zap.String("handler", "user"))},
		service: service,
	}
}

// Me handles GET /api/user/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err, "get profile")
		return
	}

	utils.ResponseSuccess(w, "Profile retrieved successfully", profile)
}
