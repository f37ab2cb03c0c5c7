package catalog

import "context"

// Store persists services.
type Store interface {
	// ListServices returns every service ordered by name.
	ListServices(ctx context.Context) ([]Service, error)
	// FindServiceByName matches the trimmed name case-insensitively. A miss is (nil, nil).
	FindServiceByName(ctx context.Context, name string) (*Service, error)
	CreateService(ctx context.Context, req CreateServiceRequest) (*Service, error)
}
