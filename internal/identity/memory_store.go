package identity

import (
	"context"
	"encoding/json"
	"sync"

	"mentor-portal/internal/auth"
)

// MemoryStore is a process-local Store. It backs development runs without
// Redis and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

// SetRaw stores an entry verbatim, bypassing validation.
func (m *MemoryStore) SetRaw(entry, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry] = value
}

// Snapshot copies every entry currently held.
func (m *MemoryStore) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

func (m *MemoryStore) Read(_ context.Context) (auth.Claim, bool) {
	m.mu.RLock()
	raw, ok := m.entries[EntryUser]
	m.mu.RUnlock()
	if !ok {
		return auth.Claim{}, false
	}

	claim, err := auth.DecodeClaim(raw)
	if err != nil {
		return auth.Claim{}, false
	}
	return claim, true
}

func (m *MemoryStore) Write(_ context.Context, claim auth.Claim) error {
	if !claim.HasEmail() {
		return ErrMissingEmail
	}

	data, err := auth.EncodeClaim(claim)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range ProfileKinds {
		delete(m.entries, string(k))
	}
	m.entries[EntryUser] = data
	return nil
}

func (m *MemoryStore) Purge(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range entryNames() {
		delete(m.entries, n)
	}
	return nil
}

func (m *MemoryStore) ReadProfile(_ context.Context, kind ProfileKind) (json.RawMessage, bool) {
	if _, err := ParseProfileKind(string(kind)); err != nil {
		return nil, false
	}

	m.mu.RLock()
	raw, ok := m.entries[string(kind)]
	m.mu.RUnlock()
	if !ok || !json.Valid([]byte(raw)) {
		return nil, false
	}
	return json.RawMessage(raw), true
}

func (m *MemoryStore) WriteProfile(_ context.Context, kind ProfileKind, blob json.RawMessage) error {
	if err := validateProfile(kind, blob); err != nil {
		return err
	}
	m.SetRaw(string(kind), string(blob))
	return nil
}

// MemoryFactory keeps one MemoryStore per device for the life of the process.
type MemoryFactory struct {
	mu     sync.Mutex
	stores map[string]*MemoryStore
}

func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{stores: make(map[string]*MemoryStore)}
}

func (f *MemoryFactory) ForDevice(deviceID string) Store {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.stores[deviceID]
	if !ok {
		s = NewMemoryStore()
		f.stores[deviceID] = s
	}
	return s
}
