package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/turnosbot/turnos/internal/bookings"
	"github.com/turnosbot/turnos/internal/catalog"
)

// Error codes returned in the "code" field.
const (
	CodeInvalidInput     = "invalid_input"
	CodeConflict         = "conflict"
	CodeNotFound         = "not_found"
	CodeStoreUnavailable = "store_unavailable"
	CodeInternal         = "internal"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, msg string, status int, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// decodeBody rejects unknown fields so typos in admin payloads are visible.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest, CodeInvalidInput)
		return false
	}
	return true
}

// statusFor maps domain errors to an HTTP status and code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, bookings.ErrInvalidInput), errors.Is(err, catalog.ErrInvalidService):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, bookings.ErrConflict), errors.Is(err, catalog.ErrDuplicateService):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, bookings.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, bookings.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, CodeStoreUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// publicMessage hides store internals from clients.
func publicMessage(err error, code string) string {
	switch code {
	case CodeStoreUnavailable:
		return "el almacenamiento no está disponible"
	case CodeInternal:
		return "error interno"
	default:
		return err.Error()
	}
}
