package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnosbot/turnos/internal/availability"
	"github.com/turnosbot/turnos/internal/bookings"
	"github.com/turnosbot/turnos/internal/catalog"
	"github.com/turnosbot/turnos/internal/intent"
)

type fixture struct {
	registry   *bookings.Registry
	catalog    *catalog.Catalog
	dispatcher *Dispatcher
}

func newFixture(t *testing.T, opts ...DispatcherOption) *fixture {
	t.Helper()
	duration := 30
	price := 2500.0
	desc := "Incluye lavado"
	cat := catalog.NewCatalog(catalog.NewMemoryStore(
		catalog.CreateServiceRequest{Name: "Corte clásico", DurationMinutes: &duration, Price: &price, Description: &desc},
		catalog.CreateServiceRequest{Name: "Barba"},
	), nil, nil)
	reg := bookings.NewRegistry(bookings.NewMemoryStore(), cat, nil)
	sug, err := availability.NewSuggester(reg, availability.DefaultGrid, 3, nil, nil)
	require.NoError(t, err)
	return &fixture{
		registry:   reg,
		catalog:    cat,
		dispatcher: NewDispatcher(cat, reg, sug, nil, opts...),
	}
}

func (f *fixture) send(t *testing.T, body string) string {
	t.Helper()
	reply, ok := f.dispatcher.Handle(context.Background(), Message{ID: "m1", From: "5491111@c.us", Body: body})
	require.True(t, ok)
	return reply
}

func TestDispatchFallbackAndHelp(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, UnknownReply, f.send(t, "asdkjh"))
	assert.Equal(t, HelpMessage, f.send(t, "hola"))
	assert.True(t, strings.HasPrefix(HelpMessage, "Hola! Soy el asistente de turnos.\n\nComandos disponibles:"))
}

func TestDispatchDiscardsWithoutReply(t *testing.T) {
	f := newFixture(t, WithClassifier(&stubClassifier{t: t, fail: true}))
	ctx := context.Background()

	for _, msg := range []Message{
		{From: "123@g.us", Body: "hola"},
		{From: "1@c.us", Body: "hola", IsGroup: true},
		{From: "1@c.us", Body: "turnos", FromMe: true},
		{From: "1@c.us", Body: "   "},
	} {
		reply, ok := f.dispatcher.Handle(ctx, msg)
		assert.False(t, ok)
		assert.Empty(t, reply)
	}
}

func TestDispatchListServices(t *testing.T) {
	f := newFixture(t)

	want := "Estos son los servicios disponibles:\n\n" +
		"• Barba (Duración no informada) - Sin precio\n\n" +
		"• Corte clásico (30 min) - $2500.00\nIncluye lavado"
	assert.Equal(t, want, f.send(t, "servicios"))
}

func TestDispatchCreateAndListBookings(t *testing.T) {
	f := newFixture(t)

	reply := f.send(t, "reservar Juan Pérez|corte CLÁSICO|2025-10-15|11:30|+54911112222")
	assert.Equal(t, "Turno reservado: 2025-10-15 11:30 - Corte clásico. Nos vemos pronto!", reply)

	list, err := f.registry.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Corte clásico", list[0].Service)

	assert.Equal(t, "Próximos turnos:\n\n• 2025-10-15 11:30 - Juan Pérez (+54911112222)", f.send(t, "turnos"))
}

func TestDispatchBookingPreviewLimit(t *testing.T) {
	f := newFixture(t, WithPreviewSize(2))
	for i := 0; i < 4; i++ {
		f.send(t, fmt.Sprintf("reservar C%d|Barba|2025-10-15|1%d:00|1", i, i))
	}

	reply := f.send(t, "turnos")
	assert.Equal(t, 2, strings.Count(reply, "•"))
	assert.Contains(t, reply, "10:00 - C0")
	assert.NotContains(t, reply, "C2")
}

func TestDispatchFormatError(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "Formato inválido. Usa: reservar Nombre|Servicio|YYYY-MM-DD|HH:mm|Telefono", f.send(t, "reservar A|B|C"))
	list, err := f.registry.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDispatchServiceNotFound(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, ServiceNotFoundReply, f.send(t, "reservar Ana|Corte|2025-10-15|11:30|1"))
}

func TestDispatchBadSlotFormat(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, InvalidSlotReply, f.send(t, "reservar Ana|Barba|15/10/2025|11:30|1"))
}

func TestDispatchTakenSlotOffersAlternatives(t *testing.T) {
	f := newFixture(t)
	f.send(t, "reservar Ana|Barba|2025-10-15|09:00|1")
	f.send(t, "reservar Beto|Barba|2025-10-15|10:00|2")

	reply := f.send(t, "reservar Caro|Barba|2025-10-15|09:00|3")
	assert.Equal(t, "Ese turno no está libre. ¿Te sirven estos horarios? 11:00, 12:00, 13:00", reply)
}

func TestDispatchClassifiedBooking(t *testing.T) {
	f := newFixture(t, WithClassifier(&stubClassifier{t: t, result: &intent.Result{
		Intent: intent.AgendarTurno,
		Entities: map[string]string{
			"fecha":    "2025-10-16",
			"horario":  "15:00",
			"servicio": "barba",
		},
	}}))

	reply := f.send(t, "quiero un turno para barba mañana a las 3")
	assert.Equal(t, "Listo, reservé Barba para el 2025-10-16 a las 15:00.", reply)

	list, err := f.registry.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, DefaultCustomerName, list[0].Name)
	assert.Equal(t, "5491111@c.us", list[0].Phone)
}

func TestDispatchClassifiedMissingFields(t *testing.T) {
	f := newFixture(t, WithClassifier(&stubClassifier{t: t, result: &intent.Result{
		Intent:   intent.AgendarTurno,
		Entities: map[string]string{"servicio": "barba"},
	}}))
	assert.Equal(t, MissingFieldsReply, f.send(t, "quiero barba"))
}

func TestDispatchCommandWinsOverClassifier(t *testing.T) {
	f := newFixture(t, WithClassifier(&stubClassifier{t: t, mustNotCall: true}))
	assert.Equal(t, HelpMessage, f.send(t, "menu"))
}

func TestDispatchClassifierFailureDegradesToUnknown(t *testing.T) {
	f := newFixture(t, WithClassifier(&stubClassifier{t: t, fail: true}))
	assert.Equal(t, UnknownReply, f.send(t, "asdkjh"))
}

func TestDispatchAttachedIntent(t *testing.T) {
	f := newFixture(t)
	reply, ok := f.dispatcher.Handle(context.Background(), Message{
		From:   "1@c.us",
		Body:   "¿qué hacen?",
		Intent: &intent.Result{Intent: "otro", FulfillmentText: "Somos una barbería."},
	})
	require.True(t, ok)
	assert.Equal(t, "Somos una barbería.", reply)
}

func TestDispatchStoreFailureReplies(t *testing.T) {
	cat := catalog.NewCatalog(brokenServiceStore{}, nil, nil)
	reg := bookings.NewRegistry(brokenBookingStore{bookings.NewMemoryStore()}, cat, nil)
	sug, err := availability.NewSuggester(reg, availability.DefaultGrid, 3, nil, nil)
	require.NoError(t, err)
	d := NewDispatcher(cat, reg, sug, nil)
	ctx := context.Background()

	reply, _ := d.Handle(ctx, Message{From: "1", Body: "servicios"})
	assert.Equal(t, ServicesLoadError, reply)

	reply, _ = d.Handle(ctx, Message{From: "1", Body: "turnos"})
	assert.Equal(t, BookingsLoadError, reply)

	reply, _ = d.Handle(ctx, Message{From: "1", Body: "reservar A|Corte|2025-10-15|11:30|1"})
	assert.Equal(t, CommandFailureReply, reply)
	assert.NotContains(t, reply, "unavailable")
}

type stubClassifier struct {
	t           *testing.T
	result      *intent.Result
	fail        bool
	mustNotCall bool
}

func (s *stubClassifier) Classify(context.Context, string) (*intent.Result, error) {
	if s.mustNotCall {
		s.t.Fatalf("classifier must not be called for command text")
	}
	if s.fail {
		return nil, errors.New("quota exceeded")
	}
	return s.result, nil
}

type brokenServiceStore struct{}

func (brokenServiceStore) ListServices(context.Context) ([]catalog.Service, error) {
	return nil, errors.New("db down")
}

func (brokenServiceStore) FindServiceByName(context.Context, string) (*catalog.Service, error) {
	return nil, errors.New("db down")
}

func (brokenServiceStore) CreateService(context.Context, catalog.CreateServiceRequest) (*catalog.Service, error) {
	return nil, errors.New("db down")
}

type brokenBookingStore struct {
	*bookings.MemoryStore
}

func (brokenBookingStore) ListBookings(context.Context) ([]bookings.Booking, error) {
	return nil, errors.New("db down")
}
