package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"diviner-booking/internal/usecase"
	"diviner-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth    *AuthHandler
	User    *UserHandler
	Booking *BookingHandler
	Payment *PaymentHandler
	Review  *ReviewHandler
	Diviner *DivinerHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, log),
		User:    NewUserHandler(service.User, log),
		Booking: NewBookingHandler(service.Booking, log),
		Payment: NewPaymentHandler(service.Payment, log),
		Review:  NewReviewHandler(service.Review, log),
		Diviner: NewDivinerHandler(service.Diviner, log),
	}
}

// base carries the logger and the error mapping shared by all handlers.
type base struct {
	log *zap.Logger
}

// decodeAndValidate reads a JSON body into dst and runs the struct rules.
// It writes the 400 response itself and reports whether to continue.
func (b base) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}

	if validationErrors := utils.ValidateStruct(dst); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return false
	}
	return true
}

// handleServiceError maps usecase errors to HTTP responses
func (b base) handleServiceError(w http.ResponseWriter, err error, operation string) {
	errMsg := err.Error()

	switch {
	case errors.Is(err, usecase.ErrValidation):
		b.log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, errMsg, nil)

	case errors.Is(err, usecase.ErrInvalidSlot):
		b.log.Info(operation+" failed - invalid slot", zap.Error(err))
		utils.ResponseUnprocessable(w, errMsg, nil)

	case errors.Is(err, usecase.ErrSlotConflict),
		errors.Is(err, usecase.ErrAlreadyPaid),
		errors.Is(err, usecase.ErrAlreadyReviewed),
		errors.Is(err, usecase.ErrEmailTaken):
		b.log.Info(operation+" failed - conflict", zap.Error(err))
		utils.ResponseConflict(w, errMsg)

	case errors.Is(err, usecase.ErrServiceNotFound),
		errors.Is(err, usecase.ErrClientNotFound),
		errors.Is(err, usecase.ErrDivinerNotFound),
		errors.Is(err, usecase.ErrBookingNotFound),
		errors.Is(err, usecase.ErrPaymentNotFound):
		b.log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, errMsg)

	case errors.Is(err, usecase.ErrForbidden):
		b.log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, errMsg)

	case errors.Is(err, usecase.ErrInvalidCredentials),
		errors.Is(err, usecase.ErrUnauthorized):
		b.log.Warn(operation+" failed - unauthorized", zap.Error(err))
		utils.ResponseUnauthorized(w, errMsg)

	case errors.Is(err, usecase.ErrInvalidTransition),
		errors.Is(err, usecase.ErrReviewNotAllowed),
		errors.Is(err, usecase.ErrPayoutAccountMissing),
		errors.Is(err, usecase.ErrBookingNotPayable),
		errors.Is(err, usecase.ErrInvalidWebhook):
		b.log.Warn(operation+" failed - invalid state", zap.Error(err))
		utils.ResponseBadRequest(w, errMsg, nil)

	default:
		b.log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
