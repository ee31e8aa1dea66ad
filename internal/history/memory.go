package history

import "sync"

// Memory is an in-process Store.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *Memory) Recent(limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := 0
	if limit > 0 && len(m.entries) > limit {
		start = len(m.entries) - limit
	}
	out := make([]Entry, len(m.entries)-start)
	copy(out, m.entries[start:])
	return out, nil
}

func (m *Memory) Close() error {
	return nil
}
