package room

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the encoded snapshot in process. Used when
// PERSIST_METHOD is memory and in tests.
type MemoryStore struct {
	lock sync.Mutex
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) SaveSnapshot(ctx context.Context, rooms []Room) error {
	data, err := encodeSnapshot(rooms, time.Now())
	if err != nil {
		return err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.data = data
	return nil
}

func (m *MemoryStore) LoadSnapshot(ctx context.Context) ([]Room, error) {
	m.lock.Lock()
	data := m.data
	m.lock.Unlock()
	if data == nil {
		return nil, ErrSnapshotNotFound
	}
	return decodeSnapshot(data)
}
