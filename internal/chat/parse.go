package chat

import (
	"strings"

	"github.com/turnosbot/turnos/internal/intent"
)

// DefaultCustomerName is used when a classified booking carries no name.
const DefaultCustomerName = "Cliente WhatsApp"

// CommandTemplate is the booking command grammar shown to customers.
const CommandTemplate = "reservar Nombre|Servicio|YYYY-MM-DD|HH:mm|Telefono"

// Source tells which path produced a booking request.
type Source int

const (
	SourceCommand Source = iota
	SourceIntent
)

// BookingFields are the five values a booking needs.
type BookingFields struct {
	Name    string
	Service string
	Date    string
	Time    string
	Phone   string
}

// ParsedBookingRequest is one of Complete, MissingFields or MalformedFormat.
type ParsedBookingRequest interface {
	parsedBookingRequest()
}

// Complete carries every field needed to attempt a booking.
type Complete struct {
	Fields BookingFields
	Source Source
}

// MissingFields lists required entity keys the classifier did not supply.
type MissingFields struct {
	Names []string
}

// MalformedFormat means the command text did not follow the template.
type MalformedFormat struct {
	Reason string
}

func (Complete) parsedBookingRequest()        {}
func (MissingFields) parsedBookingRequest()   {}
func (MalformedFormat) parsedBookingRequest() {}

// ParseCommand parses "Nombre|Servicio|YYYY-MM-DD|HH:mm|Telefono". Segments
// are trimmed and empty ones dropped; fewer than five left is malformed.
// Extra segments are ignored.
func ParseCommand(payload string) ParsedBookingRequest {
	var parts []string
	for _, segment := range strings.Split(payload, "|") {
		if s := strings.TrimSpace(segment); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) < 5 {
		return MalformedFormat{Reason: "expected " + CommandTemplate}
	}
	return Complete{
		Source: SourceCommand,
		Fields: BookingFields{
			Name:    parts[0],
			Service: parts[1],
			Date:    parts[2],
			Time:    parts[3],
			Phone:   parts[4],
		},
	}
}

// FromEntities builds a request from classifier entities. Name and phone are
// optional and fall back to DefaultCustomerName and the sender id.
func FromEntities(entities map[string]string, sender string) ParsedBookingRequest {
	get := func(key string) string {
		return strings.TrimSpace(entities[key])
	}
	fields := BookingFields{
		Date:    get(intent.EntityFecha),
		Time:    get(intent.EntityHorario),
		Service: get(intent.EntityServicio),
		Name:    get(intent.EntityNombre),
		Phone:   get(intent.EntityTelefono),
	}

	var missing []string
	if fields.Date == "" {
		missing = append(missing, intent.EntityFecha)
	}
	if fields.Time == "" {
		missing = append(missing, intent.EntityHorario)
	}
	if fields.Service == "" {
		missing = append(missing, intent.EntityServicio)
	}
	if len(missing) > 0 {
		return MissingFields{Names: missing}
	}

	if fields.Name == "" {
		fields.Name = DefaultCustomerName
	}
	if fields.Phone == "" {
		fields.Phone = strings.TrimSpace(sender)
	}
	return Complete{Fields: fields, Source: SourceIntent}
}
