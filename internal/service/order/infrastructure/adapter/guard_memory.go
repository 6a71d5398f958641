package adapter

import (
	"context"
	"sync"

	"txflow/internal/pkg/apperr"
)

// MemoryGuard 是单进程内的 port.ProcessingGuard
type MemoryGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{inFlight: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(_ context.Context, orderNumber string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[orderNumber]; busy {
		return nil, apperr.ConcurrencyConflict("order %s is already being processed", orderNumber)
	}
	g.inFlight[orderNumber] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, orderNumber)
			g.mu.Unlock()
		})
	}, nil
}
