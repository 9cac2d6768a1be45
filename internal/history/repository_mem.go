package history

import (
	"context"
	"sync"
)

type memRepo struct {
	mu      sync.RWMutex
	limit   int
	results []Result // 最新的在末尾
}

// NewMemoryRepo 最多保留 limit 条，limit <= 0 不限
func NewMemoryRepo(limit int) Repo {
	return &memRepo{limit: limit}
}

func (m *memRepo) Record(_ context.Context, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	if m.limit > 0 && len(m.results) > m.limit {
		m.results = append([]Result(nil), m.results[len(m.results)-m.limit:]...)
	}
	return nil
}

func (m *memRepo) Recent(_ context.Context, n int) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n <= 0 || n > len(m.results) {
		n = len(m.results)
	}
	out := make([]Result, 0, n)
	for i := len(m.results) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.results[i])
	}
	return out, nil
}
