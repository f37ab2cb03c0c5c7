package bookings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/turnosbot/turnos/internal/catalog"
	"github.com/turnosbot/turnos/internal/observability/metrics"
	"github.com/turnosbot/turnos/pkg/logging"
)

var bookingsTracer = otel.Tracer("turnos.internal.bookings")

// ServiceResolver looks up a catalog service by its case-insensitive name.
// A nil service with a nil error means no such service.
type ServiceResolver interface {
	FindByName(ctx context.Context, name string) (*catalog.Service, error)
}

// Registry owns the write path for bookings. It holds no mutable state of its
// own; exclusivity under concurrent writers is guaranteed by the Store.
type Registry struct {
	store    Store
	services ServiceResolver
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
	now     func() time.Time
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithMetrics records operation outcomes.
func WithMetrics(m *metrics.BookingMetrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithClock overrides the createdAt clock.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry constructs a booking registry.
func NewRegistry(store Store, services ServiceResolver, logger *logging.Logger, opts ...RegistryOption) *Registry {
	if store == nil {
		panic("bookings: store required")
	}
	if services == nil {
		panic("bookings: service resolver required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	r := &Registry{store: store, services: services, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsSlotAvailable reports whether no booking holds (service, date, time).
// The answer is only a hint: another writer may take the slot right after.
func (r *Registry) IsSlotAvailable(ctx context.Context, date, clock, service string) (available bool, err error) {
	ctx, span := r.start(ctx, "bookings.is_slot_available")
	defer r.finish(span, "is_slot_available", time.Now(), &err)

	slot := Slot{
		Service: strings.TrimSpace(service),
		Date:    strings.TrimSpace(date),
		Time:    strings.TrimSpace(clock),
	}
	span.SetAttributes(slotAttributes(slot)...)
	if slot.Service == "" || slot.Date == "" || slot.Time == "" {
		return false, fmt.Errorf("bookings: availability: %w: service, date and time are required", ErrInvalidInput)
	}
	// Unknown services keep the typed label; no booking can hold them.
	svc, err := r.services.FindByName(ctx, slot.Service)
	if err != nil {
		return false, storeError("resolve service", err)
	}
	if svc != nil {
		slot.Service = svc.Name
	}

	existing, err := r.store.FindBooking(ctx, slot)
	if err != nil {
		return false, storeError("find slot", err)
	}
	return existing == nil, nil
}

// Create validates req and persists a booking for a free slot.
func (r *Registry) Create(ctx context.Context, req CreateBookingRequest) (_ *Booking, err error) {
	ctx, span := r.start(ctx, "bookings.create")
	defer r.finish(span, "create", time.Now(), &err)

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("bookings: create: %w", err)
	}
	canonical, err := r.resolveService(ctx, req.Service)
	if err != nil {
		return nil, fmt.Errorf("bookings: create: %w", err)
	}
	req.Service = canonical
	candidate := req.booking()
	span.SetAttributes(slotAttributes(candidate.Slot())...)

	// Fast path only. The store's conditional insert is what actually guards the slot.
	existing, err := r.store.FindBooking(ctx, candidate.Slot())
	if err != nil {
		return nil, storeError("create pre-check", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("bookings: create: %w", ErrConflict)
	}

	candidate.CreatedAt = r.now().UTC()
	created, err := r.store.InsertBooking(ctx, candidate)
	if err != nil {
		return nil, storeError("create", err)
	}
	r.logger.Info("booking created",
		"booking_id", created.ID,
		"service", created.Service,
		"date", created.Date,
		"time", created.Time,
	)
	return created, nil
}

// List returns every booking ordered by date and time.
func (r *Registry) List(ctx context.Context) (_ []Booking, err error) {
	ctx, span := r.start(ctx, "bookings.list")
	defer r.finish(span, "list", time.Now(), &err)

	items, err := r.store.ListBookings(ctx)
	if err != nil {
		return nil, storeError("list", err)
	}
	span.SetAttributes(attribute.Int("turnos.bookings.count", len(items)))
	return items, nil
}

// Get returns a booking by id.
func (r *Registry) Get(ctx context.Context, id string) (_ *Booking, err error) {
	ctx, span := r.start(ctx, "bookings.get")
	defer r.finish(span, "get", time.Now(), &err)

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("bookings: get: %w", ErrNotFound)
	}
	b, err := r.store.GetBooking(ctx, id)
	if err != nil {
		return nil, storeError("get", err)
	}
	return b, nil
}

// Update applies a partial update. Moving a booking to another slot goes
// through the same conflict rules as Create.
func (r *Registry) Update(ctx context.Context, id string, req UpdateBookingRequest) (_ *Booking, err error) {
	ctx, span := r.start(ctx, "bookings.update")
	defer r.finish(span, "update", time.Now(), &err)

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("bookings: update: %w", ErrNotFound)
	}
	current, err := r.store.GetBooking(ctx, id)
	if err != nil {
		return nil, storeError("update load", err)
	}

	merged := req.apply(*current)
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("bookings: update: %w", err)
	}
	if req.Service != nil {
		canonical, err := r.resolveService(ctx, merged.Service)
		if err != nil {
			return nil, fmt.Errorf("bookings: update: %w", err)
		}
		merged.Service = canonical
	}
	next := merged.booking()
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	span.SetAttributes(slotAttributes(next.Slot())...)

	if next.Slot() != current.Slot() {
		holder, err := r.store.FindBooking(ctx, next.Slot())
		if err != nil {
			return nil, storeError("update pre-check", err)
		}
		if holder != nil && holder.ID != current.ID {
			return nil, fmt.Errorf("bookings: update: %w", ErrConflict)
		}
	}

	updated, err := r.store.UpdateBooking(ctx, next)
	if err != nil {
		return nil, storeError("update", err)
	}
	r.logger.Info("booking updated", "booking_id", updated.ID, "date", updated.Date, "time", updated.Time)
	return updated, nil
}

// Delete removes a booking permanently. Deleting a missing id is ErrNotFound.
func (r *Registry) Delete(ctx context.Context, id string) (err error) {
	ctx, span := r.start(ctx, "bookings.delete")
	defer r.finish(span, "delete", time.Now(), &err)

	id = strings.TrimSpace(id)
	span.SetAttributes(attribute.String("turnos.booking_id", id))
	if id == "" {
		return fmt.Errorf("bookings: delete: %w", ErrNotFound)
	}
	if err := r.store.DeleteBooking(ctx, id); err != nil {
		return storeError("delete", err)
	}
	r.logger.Info("booking deleted", "booking_id", id)
	return nil
}

// resolveService returns the catalog spelling of name so case variants of one
// service share a single slot key.
func (r *Registry) resolveService(ctx context.Context, name string) (string, error) {
	svc, err := r.services.FindByName(ctx, name)
	if err != nil {
		return "", storeError("resolve service", err)
	}
	if svc == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownService, name)
	}
	return svc.Name, nil
}

func (r *Registry) start(ctx context.Context, name string) (context.Context, trace.Span) {
	return bookingsTracer.Start(ctx, name)
}

func (r *Registry) finish(span trace.Span, op string, started time.Time, errp *error) {
	err := *errp
	if err != nil {
		span.RecordError(err)
		if outcome(err) == "store_unavailable" {
			r.logger.Error("booking store failure", "operation", op, "error", err)
		}
	}
	r.metrics.ObserveOperation(op, outcome(err), time.Since(started).Seconds())
	span.End()
}

func slotAttributes(s Slot) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("turnos.service", s.Service),
		attribute.String("turnos.date", s.Date),
		attribute.String("turnos.time", s.Time),
	}
}
