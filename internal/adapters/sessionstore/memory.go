package sessionstore

import (
	"maps"
	"sync"

	"github.com/dkeye/HelpWave/internal/domain"
)

// MemoryStore keeps the fields in a map. Useful for ephemeral runs and tests.
type MemoryStore struct {
	mu     sync.Mutex
	fields map[string]string
}

func NewMemory() *MemoryStore {
	return &MemoryStore{fields: make(map[string]string)}
}

// Set writes one raw field, mirroring how a browser's local storage can
// hold a partial set.
func (m *MemoryStore) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields[key] = value
}

// Fields returns a copy of the raw fields.
func (m *MemoryStore) Fields() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.fields)
}

func (m *MemoryStore) Save(s domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	maps.Copy(m.fields, encode(s))
}

func (m *MemoryStore) Load() (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return decode(m.fields)
}

func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.fields, k)
	}
}
