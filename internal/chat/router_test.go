package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turnosbot/turnos/internal/intent"
)

func TestRouterRoute(t *testing.T) {
	r := NewRouter()

	tests := []struct {
		name    string
		text    string
		action  Action
		payload string
	}{
		{"greeting", "hola", ActionShowHelp, ""},
		{"greeting prefix", "Buenas tardes!", ActionShowHelp, ""},
		{"english greeting", "Hello there", ActionShowHelp, ""},
		{"menu", "  MENU ", ActionShowHelp, ""},
		{"ayuda", "ayuda", ActionShowHelp, ""},
		{"help word must be exact", "menu por favor", ActionUnknown, ""},
		{"servicios", "Servicios", ActionListServices, ""},
		{"turnos", "turnos", ActionListBookings, ""},
		{"turnos must be exact", "turnos de mañana", ActionUnknown, ""},
		{"reservar", "reservar Ana|Corte|2025-10-15|11:30|123", ActionCreateBooking, "Ana|Corte|2025-10-15|11:30|123"},
		{"reservar colon", "RESERVAR: Ana|Corte", ActionCreateBooking, "Ana|Corte"},
		{"reservar dash", "reservar - -  Ana|Corte", ActionCreateBooking, "Ana|Corte"},
		{"reservar alone", "reservar", ActionCreateBooking, ""},
		{"gibberish", "asdkjh", ActionUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Route(tt.text)
			assert.Equal(t, tt.action, got.Action)
			assert.Equal(t, tt.payload, got.Payload)
			assert.False(t, got.Classified)
		})
	}
}

func TestRouterUnknownReplyVerbatim(t *testing.T) {
	got := NewRouter().Route("asdkjh")
	assert.Equal(t, ActionUnknown, got.Action)
	assert.Equal(t, "No entiendo tu mensaje. Escribe *menu* para ver los comandos disponibles.", got.Reply)
}

func TestRouterRouteIntent(t *testing.T) {
	r := NewRouter()

	got := r.RouteIntent(&intent.Result{Intent: intent.AgendarTurno, Entities: map[string]string{"fecha": "2025-10-15"}})
	assert.Equal(t, ActionCreateBooking, got.Action)
	assert.True(t, got.Classified)
	assert.Equal(t, "2025-10-15", got.Entities["fecha"])

	got = r.RouteIntent(&intent.Result{Intent: intent.ConsultarServicios})
	assert.Equal(t, ActionListServices, got.Action)

	got = r.RouteIntent(&intent.Result{Intent: "saludo", FulfillmentText: "¡Hola! ¿En qué te ayudo?"})
	assert.Equal(t, ActionUnknown, got.Action)
	assert.Equal(t, "¡Hola! ¿En qué te ayudo?", got.Reply)

	got = r.RouteIntent(&intent.Result{Intent: "otro"})
	assert.Equal(t, ClassifierFallbackReply, got.Reply)

	got = r.RouteIntent(nil)
	assert.Equal(t, UnknownReply, got.Reply)
}

func TestDiscardReason(t *testing.T) {
	assert.Equal(t, DiscardSelf, Message{Body: "hola", FromMe: true}.DiscardReason())
	assert.Equal(t, DiscardGroup, Message{Body: "hola", IsGroup: true}.DiscardReason())
	assert.Equal(t, DiscardGroup, Message{Body: "hola", From: "12036302@g.us"}.DiscardReason())
	assert.Equal(t, DiscardEmpty, Message{Body: " \n\t"}.DiscardReason())
	assert.Equal(t, "", Message{Body: "hola", From: "5491111@c.us"}.DiscardReason())
}
