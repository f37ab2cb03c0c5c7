package chat

import (
	"fmt"
	"strings"

	"github.com/turnosbot/turnos/internal/bookings"
	"github.com/turnosbot/turnos/internal/catalog"
)

// Fixed customer-facing replies.
const (
	HelpMessage = "Hola! Soy el asistente de turnos.\n" +
		"\n" +
		"Comandos disponibles:\n" +
		"- menu: Ver esta ayuda.\n" +
		"- servicios: Listar servicios activos.\n" +
		"- turnos: Mostrar los próximos turnos.\n" +
		"- " + CommandTemplate + ": Crear un turno rápido."

	UnknownReply            = "No entiendo tu mensaje. Escribe *menu* para ver los comandos disponibles."
	ClassifierFallbackReply = "Perdón, todavía no entiendo eso. ¿Podés reformularlo?"

	NoServicesReply   = "No hay servicios configurados en este momento."
	ServicesLoadError = "No pude recuperar la lista de servicios. Intenta más tarde."
	NoBookingsReply   = "No hay turnos registrados por ahora."
	BookingsLoadError = "No pude recuperar los turnos. Intenta más tarde."

	FormatErrorReply      = "Formato inválido. Usa: " + CommandTemplate
	MissingFieldsReply    = "Necesito fecha, horario y servicio para agendar. Por favor, envíame esos datos."
	ServiceNotFoundReply  = "No encontré ese servicio. Escribe *servicios* para ver la lista disponible."
	InvalidSlotReply      = "No se pudo crear el turno: la fecha debe tener formato YYYY-MM-DD y el horario HH:mm."
	NoAlternativesReply   = "Ese turno ya está ocupado y no encuentro alternativas cercanas."
	CommandFailureReply   = "Tuvimos un problema al crear el turno. Intenta nuevamente más tarde."
	IntentFailureReply    = "Tuvimos un problema al agendar el turno. Intentá de nuevo en unos minutos."
	alternativesReplyHead = "Ese turno no está libre. ¿Te sirven estos horarios? "
)

// AlternativesReply offers the suggested times.
func AlternativesReply(times []string) string {
	return alternativesReplyHead + strings.Join(times, ", ")
}

// ConfirmationReply names the booked slot. Wording follows the channel the
// request came from.
func ConfirmationReply(b *bookings.Booking, source Source) string {
	if source == SourceIntent {
		return fmt.Sprintf("Listo, reservé %s para el %s a las %s.", b.Service, b.Date, b.Time)
	}
	return fmt.Sprintf("Turno reservado: %s %s - %s. Nos vemos pronto!", b.Date, b.Time, b.Service)
}

func failureReply(source Source) string {
	if source == SourceIntent {
		return IntentFailureReply
	}
	return CommandFailureReply
}

// FormatServices renders the catalog for a chat reply.
func FormatServices(services []catalog.Service) string {
	if len(services) == 0 {
		return NoServicesReply
	}
	items := make([]string, 0, len(services))
	for _, svc := range services {
		duration := "Duración no informada"
		if svc.DurationMinutes != nil {
			duration = fmt.Sprintf("%d min", *svc.DurationMinutes)
		}
		price := "Sin precio"
		if svc.Price != nil {
			price = fmt.Sprintf("$%.2f", *svc.Price)
		}
		item := fmt.Sprintf("• %s (%s) - %s", svc.Name, duration, price)
		if svc.Description != nil && *svc.Description != "" {
			item += "\n" + *svc.Description
		}
		items = append(items, item)
	}
	return "Estos son los servicios disponibles:\n\n" + strings.Join(items, "\n\n")
}

// FormatBookings renders the first limit bookings, already in schedule order.
func FormatBookings(list []bookings.Booking, limit int) string {
	if len(list) == 0 {
		return NoBookingsReply
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	items := make([]string, 0, len(list))
	for _, b := range list {
		items = append(items, fmt.Sprintf("• %s %s - %s (%s)", b.Date, b.Time, b.Name, b.Phone))
	}
	return "Próximos turnos:\n\n" + strings.Join(items, "\n")
}
