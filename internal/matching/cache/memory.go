package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"rfq-workers/internal/models"
)

type memoryEntry struct {
	result  *models.MatchResult
	expires time.Time
}

// Memory is an in-process MatchCache. Entries are immutable once stored.
type Memory struct {
	mu          sync.RWMutex
	entries     map[string]memoryEntry
	generations map[string]uint64
	group       singleflight.Group
	ttl         time.Duration
	now         func() time.Time
}

type MemoryOption func(*Memory)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory returns an empty cache. ttl <= 0 means DefaultTTL.
func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Memory{
		entries:     make(map[string]memoryEntry),
		generations: make(map[string]uint64),
		ttl:         ttl,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) lookup(key string) (*models.MatchResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || !m.now().Before(e.expires) {
		return nil, false
	}
	return e.result, true
}

func (m *Memory) GetOrCompute(ctx context.Context, opportunityID string, compute ComputeFunc) (*models.MatchResult, bool, error) {
	if r, ok := m.lookup(opportunityID); ok {
		return r, true, nil
	}

	m.mu.RLock()
	gen := m.generations[opportunityID]
	m.mu.RUnlock()

	computed := false
	v, err, _ := m.group.Do(opportunityID, func() (interface{}, error) {
		// A flight that finished between lookup and Do already stored it.
		if r, ok := m.lookup(opportunityID); ok {
			return r, nil
		}
		computed = true
		r, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		if m.generations[opportunityID] == gen {
			m.entries[opportunityID] = memoryEntry{result: r, expires: m.now().Add(m.ttl)}
		}
		m.mu.Unlock()
		return r, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*models.MatchResult), !computed, nil
}

func (m *Memory) Invalidate(_ context.Context, opportunityID string) error {
	m.mu.Lock()
	delete(m.entries, opportunityID)
	m.generations[opportunityID]++
	m.mu.Unlock()
	m.group.Forget(opportunityID)
	return nil
}

// Len reports how many entries are stored, fresh or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
