package world

import (
	"sort"
	"sync"
)

// MemoryStorage keeps encoded snapshots in memory, so loaded snapshots never
// alias saved ones.
type MemoryStorage struct {
	mu        sync.RWMutex
	snapshots map[uint32][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		snapshots: make(map[uint32][]byte),
	}
}

func (m *MemoryStorage) Load(key uint32) (*Snapshot, bool, error) {
	m.mu.RLock()
	payload, ok := m.snapshots[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	snapshot, err := decodeSnapshot(payload)
	if err != nil {
		return nil, false, err
	}
	return snapshot, true, nil
}

func (m *MemoryStorage) Save(key uint32, snapshot *Snapshot) error {
	payload, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.snapshots[key] = payload
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Delete(key uint32) error {
	m.mu.Lock()
	delete(m.snapshots, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Keys() ([]uint32, error) {
	m.mu.RLock()
	keys := make([]uint32, 0, len(m.snapshots))
	for key := range m.snapshots {
		keys = append(keys, key)
	}
	m.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
