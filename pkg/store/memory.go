package store

import (
	"context"
	"sync"

	"github.com/MoXuan9X/GoodSleep/pkg/session"
)

// MemoryStore keeps the session slot in process memory. Used by tests and
// by --ephemeral runs where nothing should touch disk.
type MemoryStore struct {
	mu    sync.RWMutex
	state *session.State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (session.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return session.NewState(), nil
	}
	return m.state.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, state session.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := state.Clone()
	m.state = &st
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	return nil
}

func (m *MemoryStore) Close() error { return nil }
