package chat

import (
	"context"
	"errors"

	"github.com/turnosbot/turnos/internal/bookings"
	"github.com/turnosbot/turnos/internal/catalog"
	"github.com/turnosbot/turnos/pkg/logging"
)

// ServiceDirectory lists and resolves services.
type ServiceDirectory interface {
	List(ctx context.Context) ([]catalog.Service, error)
	FindByName(ctx context.Context, name string) (*catalog.Service, error)
}

// BookingBook is the booking registry surface chat needs.
type BookingBook interface {
	IsSlotAvailable(ctx context.Context, date, clock, service string) (bool, error)
	Create(ctx context.Context, req bookings.CreateBookingRequest) (*bookings.Booking, error)
	List(ctx context.Context) ([]bookings.Booking, error)
}

// SlotSuggester proposes free times on a date.
type SlotSuggester interface {
	SuggestSlots(ctx context.Context, date, service string) []string
}

// Filler turns a parsed booking request into a booking attempt and a reply.
type Filler struct {
	services  ServiceDirectory
	registry  BookingBook
	suggester SlotSuggester
	logger    *logging.Logger
}

func NewFiller(services ServiceDirectory, registry BookingBook, suggester SlotSuggester, logger *logging.Logger) *Filler {
	if services == nil || registry == nil || suggester == nil {
		panic("chat: filler dependencies required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Filler{services: services, registry: registry, suggester: suggester, logger: logger}
}

// Fill always returns a customer-facing reply. Internal errors are logged,
// never echoed.
func (f *Filler) Fill(ctx context.Context, parsed ParsedBookingRequest) string {
	switch req := parsed.(type) {
	case MalformedFormat:
		return FormatErrorReply
	case MissingFields:
		return MissingFieldsReply
	case Complete:
		return f.book(ctx, req)
	default:
		f.logger.Error("unhandled booking request variant", "type", req)
		return CommandFailureReply
	}
}

func (f *Filler) book(ctx context.Context, req Complete) string {
	fields := req.Fields
	if err := bookings.ValidateSlotFormat(fields.Date, fields.Time); err != nil {
		return InvalidSlotReply
	}

	svc, err := f.services.FindByName(ctx, fields.Service)
	if err != nil {
		f.logger.Error("service lookup failed", "service", fields.Service, "error", err)
		return failureReply(req.Source)
	}
	if svc == nil {
		return ServiceNotFoundReply
	}

	available, err := f.registry.IsSlotAvailable(ctx, fields.Date, fields.Time, svc.Name)
	if err != nil {
		f.logger.Error("availability check failed", "service", svc.Name, "date", fields.Date, "time", fields.Time, "error", err)
		return failureReply(req.Source)
	}
	if !available {
		return f.offerAlternatives(ctx, fields.Date, svc.Name)
	}

	booking, err := f.registry.Create(ctx, bookings.CreateBookingRequest{
		Name:    fields.Name,
		Service: svc.Name,
		Date:    fields.Date,
		Time:    fields.Time,
		Phone:   fields.Phone,
	})
	switch {
	case err == nil:
		return ConfirmationReply(booking, req.Source)
	case errors.Is(err, bookings.ErrConflict):
		// Lost the slot between the check and the insert.
		return f.offerAlternatives(ctx, fields.Date, svc.Name)
	case errors.Is(err, bookings.ErrUnknownService):
		return ServiceNotFoundReply
	case errors.Is(err, bookings.ErrInvalidInput):
		return InvalidSlotReply
	default:
		f.logger.Error("booking create failed", "service", svc.Name, "date", fields.Date, "time", fields.Time, "error", err)
		return failureReply(req.Source)
	}
}

func (f *Filler) offerAlternatives(ctx context.Context, date, service string) string {
	times := f.suggester.SuggestSlots(ctx, date, service)
	if len(times) == 0 {
		return NoAlternativesReply
	}
	return AlternativesReply(times)
}
