package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking registry and suggester.
type BookingMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationLatency  *prometheus.HistogramVec
	suggestionsServed *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turnos",
			Subsystem: "bookings",
			Name:      "operations_total",
			Help:      "Booking registry operations by outcome",
		}, []string{"operation", "outcome"}),
		operationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "turnos",
			Subsystem: "bookings",
			Name:      "operation_latency_seconds",
			Help:      "Latency of booking registry operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		suggestionsServed: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "turnos",
			Subsystem: "bookings",
			Name:      "suggestions_returned",
			Help:      "Number of alternative slots returned per suggestion request",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		}, []string{"service"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.operationsTotal, m.operationLatency, m.suggestionsServed)
	return m
}

func (m *BookingMetrics) ObserveOperation(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, outcome).Inc()
	m.operationLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *BookingMetrics) ObserveSuggestions(service string, count int) {
	if m == nil {
		return
	}
	m.suggestionsServed.WithLabelValues(service).Observe(float64(count))
}

// ChatMetrics exposes counters for the conversational channel.
type ChatMetrics struct {
	inboundTotal  *prometheus.CounterVec
	actionsTotal  *prometheus.CounterVec
	dispatchTimes *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turnos",
			Subsystem: "chat",
			Name:      "inbound_total",
			Help:      "Inbound chat messages by transport and disposition",
		}, []string{"transport", "disposition"}),
		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turnos",
			Subsystem: "chat",
			Name:      "actions_total",
			Help:      "Routed chat actions",
		}, []string{"action", "source"}),
		dispatchTimes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "turnos",
			Subsystem: "chat",
			Name:      "dispatch_latency_seconds",
			Help:      "Time spent producing a reply for one message",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.actionsTotal, m.dispatchTimes)
	return m
}

func (m *ChatMetrics) ObserveInbound(transport, disposition string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(transport, disposition).Inc()
}

func (m *ChatMetrics) ObserveAction(action, source string, seconds float64) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(action, source).Inc()
	m.dispatchTimes.WithLabelValues(action).Observe(seconds)
}
