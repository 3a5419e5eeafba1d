package secrets

import "sync"

// Memory is an in-process secret store, used in tests and as a fallback
// on systems with no keyring service. Values do not survive the process.
type Memory struct {
	mu     sync.Mutex
	values map[string]string

	// FailWrites makes Set return an error, simulating an unavailable
	// keyring so tests can exercise the plaintext degradation path.
	FailWrites error
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory secret store.
func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
