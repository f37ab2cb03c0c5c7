package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps services in process.
type MemoryStore struct {
	mu       sync.RWMutex
	services map[string]Service
}

func NewMemoryStore(seed ...CreateServiceRequest) *MemoryStore {
	s := &MemoryStore{services: make(map[string]Service)}
	for _, req := range seed {
		_, _ = s.CreateService(context.Background(), req)
	}
	return s
}

func (s *MemoryStore) ListServices(_ context.Context) ([]Service, error) {
	s.mu.RLock()
	out := make([]Service, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, svc)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) FindServiceByName(_ context.Context, name string) (*Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[NameKey(name)]
	if !ok {
		return nil, nil
	}
	return &svc, nil
}

func (s *MemoryStore) CreateService(_ context.Context, req CreateServiceRequest) (*Service, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := NameKey(req.Name)
	if _, exists := s.services[key]; exists {
		return nil, ErrDuplicateService
	}
	svc := Service{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		CreatedAt:       time.Now().UTC(),
	}
	s.services[key] = svc
	return &svc, nil
}
