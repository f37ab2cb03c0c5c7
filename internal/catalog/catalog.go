package catalog

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/turnosbot/turnos/pkg/logging"
)

var catalogTracer = otel.Tracer("turnos.internal.catalog")

// ListCache caches the full service list.
type ListCache interface {
	Get(ctx context.Context) ([]Service, bool, error)
	Set(ctx context.Context, services []Service) error
	Invalidate(ctx context.Context) error
}

// Catalog is the read/write entry point for services used by chat and the admin API.
type Catalog struct {
	store  Store
	cache  ListCache
	logger *logging.Logger
}

// NewCatalog wires a store with an optional list cache.
func NewCatalog(store Store, cache ListCache, logger *logging.Logger) *Catalog {
	if store == nil {
		panic("catalog: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Catalog{store: store, cache: cache, logger: logger}
}

// List returns all services ordered by name. Cache failures fall through to the store.
func (c *Catalog) List(ctx context.Context) ([]Service, error) {
	ctx, span := catalogTracer.Start(ctx, "catalog.list")
	defer span.End()

	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx)
		if err != nil {
			c.logger.Warn("service cache read failed", "error", err)
		} else if ok {
			span.SetAttributes(attribute.Bool("turnos.cache_hit", true))
			return cached, nil
		}
	}

	services, err := c.store.ListServices(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, services); err != nil {
			c.logger.Warn("service cache write failed", "error", err)
		}
	}
	return services, nil
}

// FindByName resolves a service label typed by a customer. No fuzzy matching.
func (c *Catalog) FindByName(ctx context.Context, name string) (*Service, error) {
	ctx, span := catalogTracer.Start(ctx, "catalog.find_by_name")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	svc, err := c.store.FindServiceByName(ctx, name)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return svc, nil
}

// Create adds a service and drops the cached list.
func (c *Catalog) Create(ctx context.Context, req CreateServiceRequest) (*Service, error) {
	ctx, span := catalogTracer.Start(ctx, "catalog.create")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	svc, err := c.store.CreateService(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.Invalidate(ctx); err != nil {
			c.logger.Warn("service cache invalidate failed", "error", err)
		}
	}
	c.logger.Info("service created", "service_id", svc.ID, "name", svc.Name)
	return svc, nil
}
