package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/turnosbot/turnos/internal/bookings"
	"github.com/turnosbot/turnos/pkg/logging"
)

// BookingRegistry is the registry surface the admin API needs.
type BookingRegistry interface {
	IsSlotAvailable(ctx context.Context, date, clock, service string) (bool, error)
	Create(ctx context.Context, req bookings.CreateBookingRequest) (*bookings.Booking, error)
	List(ctx context.Context) ([]bookings.Booking, error)
	Get(ctx context.Context, id string) (*bookings.Booking, error)
	Update(ctx context.Context, id string, req bookings.UpdateBookingRequest) (*bookings.Booking, error)
	Delete(ctx context.Context, id string) error
}

// SlotSuggester proposes free times on a date.
type SlotSuggester interface {
	SuggestSlots(ctx context.Context, date, service string) []string
}

// BookingsHandler serves /api/bookings.
type BookingsHandler struct {
	registry  BookingRegistry
	suggester SlotSuggester
	logger    *logging.Logger
}

func NewBookingsHandler(registry BookingRegistry, suggester SlotSuggester, logger *logging.Logger) *BookingsHandler {
	if registry == nil {
		panic("handlers: booking registry cannot be nil")
	}
	if suggester == nil {
		panic("handlers: slot suggester cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingsHandler{registry: registry, suggester: suggester, logger: logger}
}

// AvailabilityResponse answers GET /api/bookings/availability.
type AvailabilityResponse struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Service   string `json:"service"`
	Available bool   `json:"available"`
}

// SuggestionsResponse answers GET /api/bookings/suggestions.
type SuggestionsResponse struct {
	Date    string   `json:"date"`
	Service string   `json:"service"`
	Slots   []string `json:"slots"`
}

// List handles GET /api/bookings.
func (h *BookingsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.registry.List(r.Context())
	if err != nil {
		h.fail(w, "list", err)
		return
	}
	if list == nil {
		list = []bookings.Booking{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Create handles POST /api/bookings.
func (h *BookingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookings.CreateBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	b, err := h.registry.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "create", err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// Get handles GET /api/bookings/{id}.
func (h *BookingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Update handles PUT /api/bookings/{id}. Absent fields keep their value.
func (h *BookingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req bookings.UpdateBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	b, err := h.registry.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Delete handles DELETE /api/bookings/{id}.
func (h *BookingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Availability handles GET /api/bookings/availability?date=&time=&service=.
func (h *BookingsHandler) Availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp := AvailabilityResponse{
		Date:    strings.TrimSpace(q.Get("date")),
		Time:    strings.TrimSpace(q.Get("time")),
		Service: strings.TrimSpace(q.Get("service")),
	}
	if resp.Date == "" || resp.Time == "" || resp.Service == "" {
		jsonError(w, "date, time y service son obligatorios", http.StatusBadRequest, CodeInvalidInput)
		return
	}
	if err := bookings.ValidateSlotFormat(resp.Date, resp.Time); err != nil {
		h.fail(w, "availability", err)
		return
	}

	free, err := h.registry.IsSlotAvailable(r.Context(), resp.Date, resp.Time, resp.Service)
	if err != nil {
		h.fail(w, "availability", err)
		return
	}
	resp.Available = free
	writeJSON(w, http.StatusOK, resp)
}

// Suggestions handles GET /api/bookings/suggestions?date=&service=.
func (h *BookingsHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp := SuggestionsResponse{
		Date:    strings.TrimSpace(q.Get("date")),
		Service: strings.TrimSpace(q.Get("service")),
	}
	if resp.Date == "" || resp.Service == "" {
		jsonError(w, "date y service son obligatorios", http.StatusBadRequest, CodeInvalidInput)
		return
	}
	resp.Slots = h.suggester.SuggestSlots(r.Context(), resp.Date, resp.Service)
	if resp.Slots == nil {
		resp.Slots = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BookingsHandler) fail(w http.ResponseWriter, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("bookings request failed", "operation", op, "error", err)
	} else {
		h.logger.Debug("bookings request rejected", "operation", op, "code", code, "error", err)
	}
	jsonError(w, publicMessage(err, code), status, code)
}
