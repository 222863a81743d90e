package service

import (
	"context"
	"fmt"
	"time"

	"github.com/osa911/contactform/internal/logging"
	"github.com/osa911/contactform/internal/metrics"
	"github.com/osa911/contactform/internal/repository"
)

// RateLimiter decides whether an identity may submit now
type RateLimiter interface {
	IsAllowed(ctx context.Context, identity string, now time.Time) bool
}

// LimitStatus is a read-only view of one identity's window
type LimitStatus struct {
	Identity  string
	Used      int
	Remaining int
	Limit     int
	ResetAt   time.Time // zero when the identity has no attempts in the window
}

// RateLimitService throttles submissions per identity over a sliding window.
//
// Load, prune, check, append and save are separate store calls, so two
// concurrent requests from the same identity can both pass the check. The
// limit is best-effort, not an admission-control guarantee.
type RateLimitService struct {
	repo        repository.AttemptRepository
	maxAttempts int
	window      time.Duration
	logger      *logging.Logger
}

// NewRateLimitService creates a limiter allowing maxAttempts per window
func NewRateLimitService(repo repository.AttemptRepository, maxAttempts int, window time.Duration, logger *logging.Logger) *RateLimitService {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &RateLimitService{
		repo:        repo,
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
	}
}

// load returns the attempts still inside the window at now.
// A failing store reads as empty history.
func (s *RateLimitService) load(ctx context.Context, now time.Time) []repository.Attempt {
	attempts, err := s.repo.Load(ctx)
	if err != nil {
		metrics.RateLimitStoreErrors.WithLabelValues("load").Inc()
		s.logger.Warn("Rate limit store unreadable, allowing request: %v", err)
		return nil
	}

	live := attempts[:0]
	for _, a := range attempts {
		if now.Sub(a.Time()) < s.window {
			live = append(live, a)
		}
	}
	return live
}

func countFor(attempts []repository.Attempt, identity string) int {
	n := 0
	for _, a := range attempts {
		if a.Identity == identity {
			n++
		}
	}
	return n
}

// IsAllowed records an attempt for identity and reports true when it is
// under the limit. A denied attempt does not consume a slot.
func (s *RateLimitService) IsAllowed(ctx context.Context, identity string, now time.Time) bool {
	attempts := s.load(ctx, now)

	allowed := countFor(attempts, identity) < s.maxAttempts
	if allowed {
		attempts = append(attempts, repository.NewAttempt(identity, now))
	}

	if err := s.repo.Save(ctx, attempts); err != nil {
		metrics.RateLimitStoreErrors.WithLabelValues("save").Inc()
		s.logger.Warn("Failed to persist rate limit state: %v", err)
	}

	return allowed
}

// Status reports the window of identity without recording an attempt
func (s *RateLimitService) Status(ctx context.Context, identity string, now time.Time) (LimitStatus, error) {
	attempts, err := s.repo.Load(ctx)
	if err != nil {
		return LimitStatus{}, fmt.Errorf("failed to load rate limit state: %w", err)
	}

	status := LimitStatus{Identity: identity, Limit: s.maxAttempts}
	var oldest time.Time
	for _, a := range attempts {
		if a.Identity != identity || now.Sub(a.Time()) >= s.window {
			continue
		}
		status.Used++
		if oldest.IsZero() || a.Time().Before(oldest) {
			oldest = a.Time()
		}
	}

	status.Remaining = s.maxAttempts - status.Used
	if status.Remaining < 0 {
		status.Remaining = 0
	}
	if !oldest.IsZero() {
		status.ResetAt = oldest.Add(s.window)
	}
	return status, nil
}

// Reset forgets every recorded attempt
func (s *RateLimitService) Reset(ctx context.Context) error {
	if err := s.repo.Save(ctx, nil); err != nil {
		return fmt.Errorf("failed to reset rate limit state: %w", err)
	}
	return nil
}
