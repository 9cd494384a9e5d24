package store

import (
	"context"
	"sync"
)

type MemoryBackend struct {
	mu    sync.RWMutex
	blobs map[Key][]byte
}

var _ Backend = (*MemoryBackend)(nil)

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		blobs: map[Key][]byte{},
	}
}

func (b *MemoryBackend) Get(_ context.Context, key Key) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	value, ok := b.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (b *MemoryBackend) Set(_ context.Context, key Key, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = append([]byte(nil), value...)
	return nil
}

func (b *MemoryBackend) Remove(_ context.Context, key Key) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, key)
	return nil
}
