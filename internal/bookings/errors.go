package bookings

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when a required field is missing or malformed.
	ErrInvalidInput = errors.New("invalid booking input")

	// ErrConflict is returned when the (service, date, time) slot is already taken.
	ErrConflict = errors.New("slot already booked")

	// ErrNotFound is returned when a booking id does not exist.
	ErrNotFound = errors.New("booking not found")

	// ErrUnknownService is returned when a booking names a service missing from
	// the catalog. It is also an ErrInvalidInput.
	ErrUnknownService = fmt.Errorf("%w: unknown service", ErrInvalidInput)

	// ErrStoreUnavailable wraps transport or storage failures.
	ErrStoreUnavailable = errors.New("booking store unavailable")
)

// storeError classifies an error coming back from a Store. Known sentinels
// pass through; everything else is reported as ErrStoreUnavailable with the
// cause still reachable through errors.Is / errors.As.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConflict), errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput):
		return fmt.Errorf("bookings: %s: %w", op, err)
	default:
		return fmt.Errorf("bookings: %s: %w: %w", op, ErrStoreUnavailable, err)
	}
}

// outcome maps an error to a low-cardinality metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "store_unavailable"
	}
}
