package bookings

import "context"

// Store persists bookings. Implementations must enforce the exclusive
// (service, date, time) constraint themselves on InsertBooking and
// UpdateBooking and report a violation as ErrConflict.
type Store interface {
	// FindBooking returns the booking holding the slot, or nil when free.
	FindBooking(ctx context.Context, slot Slot) (*Booking, error)
	// InsertBooking assigns an id and persists b unless the slot is taken.
	InsertBooking(ctx context.Context, b Booking) (*Booking, error)
	// ListBookings returns every booking ordered by date, time and id.
	ListBookings(ctx context.Context) ([]Booking, error)
	GetBooking(ctx context.Context, id string) (*Booking, error)
	// UpdateBooking overwrites the mutable fields of b.ID.
	UpdateBooking(ctx context.Context, b Booking) (*Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}
