package services

import (
	"errors"
	"fmt"
)

// Placement validation errors. All of them abort the placement before any
// write; the caller must resubmit.
var (
	ErrDishNotFound       = errors.New("dish not found")
	ErrDishUnavailable    = errors.New("dish is not available")
	ErrInsufficientStock  = errors.New("insufficient stock for dish")
	ErrVariantNotFound    = errors.New("variant not found for dish")
	ErrPromoCodeInvalid   = errors.New("promo code is invalid")
	ErrPromoCodeExpired   = errors.New("promo code is expired or not yet valid")
	ErrPromoUsageExceeded = errors.New("promo code usage limit exceeded")
	ErrPromoMinimumNotMet = errors.New("order amount below promo code minimum")
	ErrNoAvailableSlot    = errors.New("no available time slot for pickup time")
	ErrSlotFullyBooked    = errors.New("time slot is fully booked")
	ErrNoItems            = errors.New("order must contain at least one item")
	ErrMissingIdentity    = errors.New("either customer info or user id is required")
)

// Lifecycle errors.
var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrAlreadyCancelled = errors.New("order is already cancelled")
	ErrAlreadyPickedUp  = errors.New("order has already been picked up")
)

// InvalidTransitionError reports a status change the state machine does not
// allow, naming both statuses.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition from %q to %q", e.From, e.To)
}

// IsValidationError reports whether err is one of the placement or
// lifecycle value errors, as opposed to an infrastructure failure the
// caller may retry.
func IsValidationError(err error) bool {
	var it *InvalidTransitionError
	if errors.As(err, &it) {
		return true
	}
	for _, v := range []error{
		ErrDishNotFound, ErrDishUnavailable, ErrInsufficientStock,
		ErrVariantNotFound, ErrPromoCodeInvalid, ErrPromoCodeExpired,
		ErrPromoUsageExceeded, ErrPromoMinimumNotMet, ErrNoAvailableSlot,
		ErrSlotFullyBooked, ErrNoItems, ErrMissingIdentity,
		ErrOrderNotFound, ErrAlreadyCancelled, ErrAlreadyPickedUp,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
