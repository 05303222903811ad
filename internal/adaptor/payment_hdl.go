package adaptor

import (
	"io"
	"net/http"

	"diviner-booking/internal/dto/request"
	"diviner-booking/internal/usecase"
	"diviner-booking/pkg/utils"

	"go.uber.org/zap"
)

// maxWebhookBytes bounds the webhook body read before signature checks.
const maxWebhookBytes = 64 << 10

type PaymentHandler struct {
	base
	service usecase.PaymentService
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		base:    base{log: log.With(zap.String("handler", "payment"))},
		service: service,
	}
}

// CreatePaymentIntent handles POST /api/payments/intent (client)
func (h *PaymentHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreatePaymentIntentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	intent, err := h.service.CreatePaymentIntent(r.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(w, err, "create payment intent")
		return
	}

	utils.ResponseCreated(w, "Payment intent created", intent)
}

// Webhook handles POST /api/payments/webhook. The raw body is needed for
// the signature check, so it is not decoded here.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		h.log.Warn("Webhook body rejected", zap.Error(err))
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.service.ReceiveWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.handleServiceError(w, err, "receive webhook")
		return
	}

	utils.ResponseSuccess(w, "received", nil)
}
