package usecase

import (
	"errors"
	"fmt"

	"diviner-booking/pkg/utils"

	"github.com/google/uuid"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrForbidden          = errors.New("not allowed to access this resource")

	ErrInvalidSlot     = errors.New("booking: invalid slot")
	ErrSlotConflict    = errors.New("booking: slot conflict")
	ErrServiceNotFound = errors.New("booking: service not found")
	ErrClientNotFound  = errors.New("booking: client not found")
	ErrDivinerNotFound = errors.New("booking: diviner not found")
	ErrBookingNotFound = errors.New("booking: booking not found")

	ErrInvalidTransition = errors.New("booking: status transition not allowed")

	ErrAlreadyPaid          = errors.New("payment: booking already paid")
	ErrBookingNotPayable    = errors.New("payment: booking is not awaiting payment")
	ErrPayoutAccountMissing = errors.New("payment: diviner has no payout account")
	ErrPaymentNotFound      = errors.New("payment: payment not found")
	ErrInvalidWebhook       = errors.New("payment: invalid webhook")

	ErrReviewNotAllowed = errors.New("review: only completed bookings can be reviewed")
	ErrAlreadyReviewed  = errors.New("review: booking already reviewed")
)

func validationError(errs map[string]string) error {
	return fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
}

func parseID(value, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s %q", ErrValidation, name, value)
	}
	return id, nil
}
