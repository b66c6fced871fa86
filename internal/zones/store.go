package zones

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrStoreUnavailable indicates the zone store dependency is not configured.
var ErrStoreUnavailable = errors.New("zones: store unavailable")

// Store provides read access to merchant zone, method, and rate data.
type Store interface {
	ListActiveZones(ctx context.Context) ([]Zone, error)
	ListActiveMethods(ctx context.Context) ([]Method, error)
	GetMethodByCode(ctx context.Context, code string) (Method, bool, error)
	GetMethodByID(ctx context.Context, id string) (Method, bool, error)
	ListActiveRates(ctx context.Context, methodID string, zoneIDs []string) ([]Rate, error)
}

// MemoryStore is an in-process Store, used in tests and when running without
// a database.
type MemoryStore struct {
	mu      sync.RWMutex
	zones   []Zone
	methods []Method
	rates   []Rate
}

// NewMemoryStore creates a MemoryStore seeded with the given data.
func NewMemoryStore(zones []Zone, methods []Method, rates []Rate) *MemoryStore {
	return &MemoryStore{zones: zones, methods: methods, rates: rates}
}

func (s *MemoryStore) ListActiveZones(ctx context.Context) ([]Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Zone, 0, len(s.zones))
	for _, z := range s.zones {
		if z.Active {
			out = append(out, z)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListActiveMethods(ctx context.Context) ([]Method, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Method, 0, len(s.methods))
	for _, m := range s.methods {
		if m.Active {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (s *MemoryStore) GetMethodByCode(ctx context.Context, code string) (Method, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.methods {
		if m.Active && strings.EqualFold(m.Code, code) {
			return m, true, nil
		}
	}
	return Method{}, false, nil
}

func (s *MemoryStore) GetMethodByID(ctx context.Context, id string) (Method, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.methods {
		if m.Active && m.ID == id {
			return m, true, nil
		}
	}
	return Method{}, false, nil
}

func (s *MemoryStore) ListActiveRates(ctx context.Context, methodID string, zoneIDs []string) ([]Rate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[string]bool, len(zoneIDs))
	for _, id := range zoneIDs {
		wanted[id] = true
	}
	var out []Rate
	for _, r := range s.rates {
		if r.Active && r.MethodID == methodID && wanted[r.ZoneID] {
			out = append(out, r)
		}
	}
	return out, nil
}

// SetRates replaces the stored rates. Used by tests to mutate scenarios.
func (s *MemoryStore) SetRates(rates []Rate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = rates
}
