package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidService is returned when a service payload fails validation.
	ErrInvalidService = errors.New("invalid service")

	// ErrDuplicateService is returned when another service already uses the name.
	ErrDuplicateService = errors.New("service name already exists")
)

// Service is a bookable offering. Name is the key chat commands match against.
type Service struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	DurationMinutes *int      `json:"durationMinutes,omitempty"`
	Price           *float64  `json:"price,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CreateServiceRequest is the admin payload for a new service.
type CreateServiceRequest struct {
	Name            string   `json:"name"`
	Description     *string  `json:"description,omitempty"`
	DurationMinutes *int     `json:"durationMinutes,omitempty"`
	Price           *float64 `json:"price,omitempty"`
}

// Validate trims the request and checks field ranges.
func (r *CreateServiceRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidService)
	}
	if r.Description != nil {
		trimmed := strings.TrimSpace(*r.Description)
		if trimmed == "" {
			r.Description = nil
		} else {
			r.Description = &trimmed
		}
	}
	if r.DurationMinutes != nil && *r.DurationMinutes <= 0 {
		return fmt.Errorf("%w: durationMinutes must be positive", ErrInvalidService)
	}
	if r.Price != nil && *r.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidService)
	}
	return nil
}

// NameKey is the case-insensitive lookup key for a service name.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
