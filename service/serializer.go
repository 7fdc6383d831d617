package service

import (
	"context"
	"sync"
)

// Serializer runs mutating engine operations one at a time
type Serializer struct {
	mu sync.Mutex
}

// NewSerializer creates a new serializer
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Do runs fn while holding the write lock
func (s *Serializer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx)
}
