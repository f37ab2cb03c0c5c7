package chat

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/turnosbot/turnos/internal/intent"
	"github.com/turnosbot/turnos/internal/observability/metrics"
	"github.com/turnosbot/turnos/pkg/logging"
)

var chatTracer = otel.Tracer("turnos.internal.chat")

// DefaultPreviewSize is how many bookings the turnos command shows.
const DefaultPreviewSize = 5

// Dispatcher is the single entry point transports call for each inbound message.
type Dispatcher struct {
	router      *Router
	filler      *Filler
	services    ServiceDirectory
	registry    BookingBook
	classifier  intent.Classifier
	previewSize int
	logger      *logging.Logger
	metrics     *metrics.ChatMetrics
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithClassifier enables the classified-intent path for text that is not a command.
func WithClassifier(c intent.Classifier) DispatcherOption {
	return func(d *Dispatcher) {
		d.classifier = c
	}
}

// WithPreviewSize overrides how many bookings are listed.
func WithPreviewSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.previewSize = n
		}
	}
}

// WithChatMetrics records routed actions.
func WithChatMetrics(m *metrics.ChatMetrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func NewDispatcher(services ServiceDirectory, registry BookingBook, suggester SlotSuggester, logger *logging.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	d := &Dispatcher{
		router:      NewRouter(),
		filler:      NewFiller(services, registry, suggester, logger),
		services:    services,
		registry:    registry,
		previewSize: DefaultPreviewSize,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle produces the reply for msg. ok is false when the message is
// discarded and nothing must be sent back.
func (d *Dispatcher) Handle(ctx context.Context, msg Message) (reply string, ok bool) {
	if reason := msg.DiscardReason(); reason != "" {
		d.logger.Debug("chat message discarded", "message_id", msg.ID, "reason", reason)
		return "", false
	}

	ctx, span := chatTracer.Start(ctx, "chat.dispatch")
	defer span.End()
	started := time.Now()

	route, source := d.resolve(ctx, msg)
	span.SetAttributes(
		attribute.String("turnos.chat.action", string(route.Action)),
		attribute.String("turnos.chat.source", source),
	)
	d.logger.Info("chat message routed", "message_id", msg.ID, "from", msg.From, "action", route.Action, "source", source)

	reply = d.execute(ctx, msg, route)
	d.metrics.ObserveAction(string(route.Action), source, time.Since(started).Seconds())
	return reply, true
}

// resolve applies command syntax first, then an attached intent, then the classifier.
func (d *Dispatcher) resolve(ctx context.Context, msg Message) (Route, string) {
	route := d.router.Route(msg.Body)
	if route.Action != ActionUnknown {
		return route, "command"
	}
	if msg.Intent != nil {
		return d.router.RouteIntent(msg.Intent), "intent"
	}
	if d.classifier == nil {
		return route, "command"
	}
	res, err := d.classifier.Classify(ctx, msg.Body)
	if err != nil {
		d.logger.Warn("intent classification failed", "message_id", msg.ID, "error", err)
		return route, "command"
	}
	return d.router.RouteIntent(res), "classifier"
}

func (d *Dispatcher) execute(ctx context.Context, msg Message, route Route) string {
	switch route.Action {
	case ActionShowHelp:
		return HelpMessage
	case ActionListServices:
		services, err := d.services.List(ctx)
		if err != nil {
			d.logger.Error("chat services list failed", "error", err)
			return ServicesLoadError
		}
		return FormatServices(services)
	case ActionListBookings:
		list, err := d.registry.List(ctx)
		if err != nil {
			d.logger.Error("chat bookings list failed", "error", err)
			return BookingsLoadError
		}
		return FormatBookings(list, d.previewSize)
	case ActionCreateBooking:
		if route.Classified {
			return d.filler.Fill(ctx, FromEntities(route.Entities, msg.From))
		}
		return d.filler.Fill(ctx, ParseCommand(route.Payload))
	default:
		if route.Reply != "" {
			return route.Reply
		}
		return UnknownReply
	}
}
