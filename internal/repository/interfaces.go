package repository

import (
	"context"
	"time"
)

// Attempt is one recorded contact attempt from a caller identity.
// The JSON shape is shared by every backend.
type Attempt struct {
	Identity  string `json:"ip"`
	Timestamp int64  `json:"timestamp"` // unix seconds
}

// NewAttempt records identity at instant at
func NewAttempt(identity string, at time.Time) Attempt {
	return Attempt{Identity: identity, Timestamp: at.Unix()}
}

// Time returns the attempt instant
func (a Attempt) Time() time.Time {
	return time.Unix(a.Timestamp, 0)
}

// AttemptRepository is the durable store behind rate limiting
type AttemptRepository interface {
	// Load returns every stored attempt in insertion order
	Load(ctx context.Context) ([]Attempt, error)
	// Save replaces the full set of attempts; readers never observe a partial write
	Save(ctx context.Context, attempts []Attempt) error
}
