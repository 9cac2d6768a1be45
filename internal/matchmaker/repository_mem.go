package matchmaker

import (
	"context"
	"sort"
	"sync"
)

type memRepo struct {
	mu      sync.Mutex
	entries []Entry             // 按 JoinedAt 升序
	index   map[string]struct{} // connID 集合
}

func NewMemoryRepo() Repo {
	return &memRepo{index: make(map[string]struct{})}
}

func (m *memRepo) Enqueue(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.index[e.ConnID]; ok {
		return ErrAlreadyQueued
	}
	// 插到所有 JoinedAt <= e.JoinedAt 的条目之后
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].JoinedAt.After(e.JoinedAt)
	})
	m.entries = append(m.entries, Entry{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = e
	m.index[e.ConnID] = struct{}{}
	return nil
}

func (m *memRepo) PopOldest(ctx context.Context, n int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || len(m.entries) < n {
		return nil, nil
	}
	out := make([]Entry, n)
	copy(out, m.entries[:n])
	m.entries = append(m.entries[:0], m.entries[n:]...)
	for _, e := range out {
		delete(m.index, e.ConnID)
	}
	return out, nil
}

func (m *memRepo) Remove(ctx context.Context, connID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.index[connID]; !ok {
		return false, nil
	}
	delete(m.index, connID)
	for i, e := range m.entries {
		if e.ConnID == connID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *memRepo) Contains(ctx context.Context, connID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.index[connID]
	return ok, nil
}

func (m *memRepo) List(ctx context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *memRepo) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.entries)), nil
}
