package repository

import (
	"context"
	"sync"
)

// MemoryAttemptRepository keeps attempts in process memory.
// It is exported so tests can seed and inspect it directly.
type MemoryAttemptRepository struct {
	mu       sync.RWMutex
	attempts []Attempt
}

// NewMemoryAttemptRepository creates an empty in-memory store
func NewMemoryAttemptRepository() *MemoryAttemptRepository {
	return &MemoryAttemptRepository{}
}

func (r *MemoryAttemptRepository) Load(ctx context.Context) ([]Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Attempt(nil), r.attempts...), nil
}

func (r *MemoryAttemptRepository) Save(ctx context.Context, attempts []Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append([]Attempt(nil), attempts...)
	return nil
}

// Len returns the number of stored attempts
func (r *MemoryAttemptRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.attempts)
}
