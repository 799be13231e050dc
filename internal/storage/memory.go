package storage

import (
	"context"
	"sort"
	"sync"

	"komoralink/internal/core"
)

// MemoryStore keeps reports in process memory. Used for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]core.Report
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]core.Report)}
}

func (m *MemoryStore) Save(_ context.Context, r core.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.Buckets = append([]core.PeriodBucket(nil), r.Buckets...)
	m.reports[r.ID] = r
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (core.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[id]
	if !ok {
		return core.Report{}, ErrReportNotFound
	}
	r.Buckets = append([]core.PeriodBucket(nil), r.Buckets...)
	return r, nil
}

func (m *MemoryStore) List(_ context.Context, f ListFilter) ([]core.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Report, 0)
	if f.Owner == "" {
		return out, nil
	}
	for _, r := range m.reports {
		if r.Owner != f.Owner {
			continue
		}
		r.Buckets = nil
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if n := f.limit(); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
