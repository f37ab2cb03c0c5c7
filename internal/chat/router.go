package chat

import (
	"strings"
	"unicode"

	"github.com/turnosbot/turnos/internal/intent"
)

// Action is what the dispatcher does with a message.
type Action string

const (
	ActionShowHelp      Action = "show_help"
	ActionListServices  Action = "list_services"
	ActionListBookings  Action = "list_bookings"
	ActionCreateBooking Action = "create_booking"
	ActionUnknown       Action = "unknown"
)

// Route is the router's decision for a single message.
type Route struct {
	Action Action
	// Payload is the raw text after the reservar command word.
	Payload string
	// Classified is true when the route came from an intent result.
	Classified bool
	Entities   map[string]string
	// Reply is the fixed text for ActionUnknown.
	Reply string
}

const reserveCommand = "reservar"

var (
	greetingPrefixes = []string{"hola", "hello", "buenas"}
	helpWords        = map[string]bool{"menu": true, "help": true, "ayuda": true}
)

// Router maps message text or a classifier result to an Action. It keeps no
// state between messages and never fails.
type Router struct{}

func NewRouter() *Router {
	return &Router{}
}

// Route classifies raw command text.
func (r *Router) Route(text string) Route {
	text = strings.TrimSpace(text)
	normalized := strings.ToLower(text)

	if helpWords[normalized] {
		return Route{Action: ActionShowHelp}
	}
	for _, greeting := range greetingPrefixes {
		if strings.HasPrefix(normalized, greeting) {
			return Route{Action: ActionShowHelp}
		}
	}
	switch normalized {
	case "servicios":
		return Route{Action: ActionListServices}
	case "turnos":
		return Route{Action: ActionListBookings}
	}
	if strings.HasPrefix(normalized, reserveCommand) {
		return Route{Action: ActionCreateBooking, Payload: commandPayload(text)}
	}
	return Route{Action: ActionUnknown, Reply: UnknownReply}
}

// RouteIntent classifies a classifier result.
func (r *Router) RouteIntent(res *intent.Result) Route {
	if res == nil {
		return Route{Action: ActionUnknown, Reply: UnknownReply}
	}
	switch res.Intent {
	case intent.AgendarTurno:
		return Route{Action: ActionCreateBooking, Classified: true, Entities: res.Entities}
	case intent.ConsultarServicios:
		return Route{Action: ActionListServices, Classified: true}
	}
	reply := strings.TrimSpace(res.FulfillmentText)
	if reply == "" {
		reply = ClassifierFallbackReply
	}
	return Route{Action: ActionUnknown, Classified: true, Reply: reply}
}

// commandPayload strips the command word and any leading ':', '-' or
// whitespace separators.
func commandPayload(text string) string {
	rest := text[len(reserveCommand):]
	rest = strings.TrimLeftFunc(rest, func(r rune) bool {
		return r == ':' || r == '-' || unicode.IsSpace(r)
	})
	return strings.TrimSpace(rest)
}
