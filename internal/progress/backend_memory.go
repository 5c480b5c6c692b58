package progress

import (
	"context"
	"sync"
)

// MemoryBackend keeps the slot in process memory.
type MemoryBackend struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemoryBackend creates an empty in-memory slot.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Read(_ context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.data == nil {
		return nil, ErrNoRecord
	}
	return append([]byte(nil), b.data...), nil
}

func (b *MemoryBackend) Write(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append([]byte{}, data...)
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = nil
	return nil
}
