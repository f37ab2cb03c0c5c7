package handlers

import (
	"context"
	"net/http"

	"github.com/turnosbot/turnos/internal/catalog"
	"github.com/turnosbot/turnos/pkg/logging"
)

// ServiceCatalog lists and creates services.
type ServiceCatalog interface {
	List(ctx context.Context) ([]catalog.Service, error)
	Create(ctx context.Context, req catalog.CreateServiceRequest) (*catalog.Service, error)
}

// ServicesHandler serves /api/services.
type ServicesHandler struct {
	catalog ServiceCatalog
	logger  *logging.Logger
}

func NewServicesHandler(c ServiceCatalog, logger *logging.Logger) *ServicesHandler {
	if c == nil {
		panic("handlers: service catalog cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ServicesHandler{catalog: c, logger: logger}
}

// List handles GET /api/services.
func (h *ServicesHandler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list services", "error", err)
		jsonError(w, publicMessage(err, CodeStoreUnavailable), http.StatusServiceUnavailable, CodeStoreUnavailable)
		return
	}
	if services == nil {
		services = []catalog.Service{}
	}
	writeJSON(w, http.StatusOK, services)
}

// Create handles POST /api/services.
func (h *ServicesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req catalog.CreateServiceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	svc, err := h.catalog.Create(r.Context(), req)
	if err != nil {
		status, code := statusFor(err)
		if code == CodeInternal {
			status, code = http.StatusServiceUnavailable, CodeStoreUnavailable
			h.logger.Error("failed to create service", "error", err)
		}
		jsonError(w, publicMessage(err, code), status, code)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}
