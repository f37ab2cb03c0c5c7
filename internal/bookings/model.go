package bookings

import (
	"fmt"
	"strings"
	"time"
)

// Layouts accepted for the date and time fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Booking is a single reserved slot.
type Booking struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Service   string    `json:"service"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}

// Slot identifies the exclusive (service, date, time) triple.
type Slot struct {
	Service string
	Date    string
	Time    string
}

func (b Booking) Slot() Slot {
	return Slot{Service: b.Service, Date: b.Date, Time: b.Time}
}

// Less orders bookings by date, then time, then id.
func Less(a, b Booking) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	return a.ID < b.ID
}

// CreateBookingRequest is the input for Registry.Create.
type CreateBookingRequest struct {
	Name    string `json:"name"`
	Service string `json:"service"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Phone   string `json:"phone"`
}

// Normalize trims every field in place.
func (r *CreateBookingRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Service = strings.TrimSpace(r.Service)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Phone = strings.TrimSpace(r.Phone)
}

// Validate validates the create booking request
func (r *CreateBookingRequest) Validate() error {
	var missing []string
	if r.Name == "" {
		missing = append(missing, "name")
	}
	if r.Service == "" {
		missing = append(missing, "service")
	}
	if r.Date == "" {
		missing = append(missing, "date")
	}
	if r.Time == "" {
		missing = append(missing, "time")
	}
	if r.Phone == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return ValidateSlotFormat(r.Date, r.Time)
}

func (r *CreateBookingRequest) booking() Booking {
	return Booking{
		Name:    r.Name,
		Service: r.Service,
		Date:    r.Date,
		Time:    r.Time,
		Phone:   r.Phone,
	}
}

// UpdateBookingRequest carries a partial update. Nil fields are left as is.
type UpdateBookingRequest struct {
	Name    *string `json:"name,omitempty"`
	Service *string `json:"service,omitempty"`
	Date    *string `json:"date,omitempty"`
	Time    *string `json:"time,omitempty"`
	Phone   *string `json:"phone,omitempty"`
}

// apply returns the booking with the update merged in, as a create request so
// the same validation runs on both paths.
func (u UpdateBookingRequest) apply(b Booking) CreateBookingRequest {
	merged := CreateBookingRequest{
		Name:    b.Name,
		Service: b.Service,
		Date:    b.Date,
		Time:    b.Time,
		Phone:   b.Phone,
	}
	if u.Name != nil {
		merged.Name = *u.Name
	}
	if u.Service != nil {
		merged.Service = *u.Service
	}
	if u.Date != nil {
		merged.Date = *u.Date
	}
	if u.Time != nil {
		merged.Time = *u.Time
	}
	if u.Phone != nil {
		merged.Phone = *u.Phone
	}
	merged.Normalize()
	return merged
}

// ValidateSlotFormat checks date is YYYY-MM-DD and time is HH:mm.
func ValidateSlotFormat(date, clock string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, date)
	}
	if _, err := time.Parse(TimeLayout, clock); err != nil || len(clock) != len(TimeLayout) {
		return fmt.Errorf("%w: time %q must be HH:mm", ErrInvalidInput, clock)
	}
	return nil
}
