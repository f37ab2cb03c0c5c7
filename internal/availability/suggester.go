package availability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/turnosbot/turnos/internal/bookings"
	"github.com/turnosbot/turnos/internal/observability/metrics"
	"github.com/turnosbot/turnos/pkg/logging"
)

var availabilityTracer = otel.Tracer("turnos.internal.availability")

// SlotChecker is the part of the booking registry the suggester needs.
type SlotChecker interface {
	IsSlotAvailable(ctx context.Context, date, clock, service string) (bool, error)
}

// Grid is the fixed daily slot grid candidates are drawn from.
// Close is exclusive.
type Grid struct {
	Open  string
	Close string
	Step  time.Duration
}

// DefaultGrid is hourly slots 09:00 to 17:00 inclusive (Close 18:00 is exclusive).
var DefaultGrid = Grid{Open: "09:00", Close: "18:00", Step: time.Hour}

// Times lists every HH:mm on the grid in ascending order.
func (g Grid) Times() ([]string, error) {
	open, err := time.Parse(bookings.TimeLayout, g.Open)
	if err != nil {
		return nil, fmt.Errorf("availability: open %q: %w", g.Open, err)
	}
	closing, err := time.Parse(bookings.TimeLayout, g.Close)
	if err != nil {
		return nil, fmt.Errorf("availability: close %q: %w", g.Close, err)
	}
	if g.Step <= 0 {
		return nil, fmt.Errorf("availability: step must be positive")
	}
	var out []string
	for t := open; t.Before(closing); t = t.Add(g.Step) {
		out = append(out, t.Format(bookings.TimeLayout))
	}
	return out, nil
}

// Suggester proposes free alternative slots for a service on a date.
type Suggester struct {
	checker SlotChecker
	times   []string
	limit   int
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
}

// NewSuggester builds a suggester over grid returning at most limit slots.
func NewSuggester(checker SlotChecker, grid Grid, limit int, logger *logging.Logger, m *metrics.BookingMetrics) (*Suggester, error) {
	if checker == nil {
		panic("availability: slot checker required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if limit <= 0 {
		return nil, fmt.Errorf("availability: limit must be positive, got %d", limit)
	}
	times, err := grid.Times()
	if err != nil {
		return nil, err
	}
	return &Suggester{checker: checker, times: times, limit: limit, logger: logger, metrics: m}, nil
}

// SuggestSlots returns up to the configured number of free grid times on date,
// earliest first. It never fails: a candidate whose check errors is skipped and
// an unparsable date yields nothing.
func (s *Suggester) SuggestSlots(ctx context.Context, date, service string) []string {
	ctx, span := availabilityTracer.Start(ctx, "availability.suggest_slots")
	defer span.End()

	date = strings.TrimSpace(date)
	service = strings.TrimSpace(service)
	span.SetAttributes(
		attribute.String("turnos.date", date),
		attribute.String("turnos.service", service),
	)

	out := []string{}
	if _, err := time.Parse(bookings.DateLayout, date); err != nil || service == "" {
		s.metrics.ObserveSuggestions(service, 0)
		return out
	}

	for _, candidate := range s.times {
		if len(out) == s.limit {
			break
		}
		if ctx.Err() != nil {
			break
		}
		free, err := s.checker.IsSlotAvailable(ctx, date, candidate, service)
		if err != nil {
			span.RecordError(err)
			s.logger.Warn("slot check failed while suggesting", "date", date, "time", candidate, "service", service, "error", err)
			continue
		}
		if free {
			out = append(out, candidate)
		}
	}
	span.SetAttributes(attribute.Int("turnos.suggestions", len(out)))
	s.metrics.ObserveSuggestions(service, len(out))
	return out
}
