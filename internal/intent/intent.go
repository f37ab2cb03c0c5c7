package intent

import "context"

// Intent names the classifier is asked to produce.
const (
	AgendarTurno       = "agendar_turno"
	ConsultarServicios = "consultar_servicios"
)

// Entity keys understood by the booking filler.
const (
	EntityFecha    = "fecha"
	EntityHorario  = "horario"
	EntityServicio = "servicio"
	EntityNombre   = "nombre"
	EntityTelefono = "telefono"
)

// Result is what a classifier returns for one message.
type Result struct {
	Intent          string            `json:"intent"`
	Entities        map[string]string `json:"entities,omitempty"`
	FulfillmentText string            `json:"fulfillmentText,omitempty"`
}

// Classifier maps free text to an intent. Implementations may call remote models.
type Classifier interface {
	Classify(ctx context.Context, text string) (*Result, error)
}
