package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa911/contactform/internal/logging"
	"github.com/osa911/contactform/internal/metrics"
	"github.com/osa911/contactform/internal/repository"
)

var testNow = time.Unix(1_700_000_000, 0)

func quietLogger() *logging.Logger {
	return logging.New(io.Discard, logging.LevelDebug)
}

func TestRateLimitService_AllowsUpToLimit(t *testing.T) {
	repo := repository.NewMemoryAttemptRepository()
	limiter := NewRateLimitService(repo, 5, time.Hour, quietLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.IsAllowed(ctx, "203.0.113.1", testNow.Add(time.Duration(i)*time.Second)), "attempt %d", i+1)
	}
	assert.False(t, limiter.IsAllowed(ctx, "203.0.113.1", testNow.Add(10*time.Second)))
	assert.Equal(t, 5, repo.Len(), "denied attempts must not consume a slot")

	assert.True(t, limiter.IsAllowed(ctx, "198.51.100.1", testNow.Add(10*time.Second)), "other identities are independent")
}

func TestRateLimitService_WindowElapses(t *testing.T) {
	repo := repository.NewMemoryAttemptRepository()
	limiter := NewRateLimitService(repo, 2, time.Hour, quietLogger())
	ctx := context.Background()

	require.True(t, limiter.IsAllowed(ctx, "a", testNow))
	require.True(t, limiter.IsAllowed(ctx, "a", testNow))
	require.False(t, limiter.IsAllowed(ctx, "a", testNow.Add(time.Hour-time.Second)))

	// an entry exactly one window old no longer counts
	assert.True(t, limiter.IsAllowed(ctx, "a", testNow.Add(time.Hour)))
	assert.Equal(t, 1, repo.Len(), "expired entries are pruned on save")
}

func TestRateLimitService_PrunesOtherIdentities(t *testing.T) {
	repo := repository.NewMemoryAttemptRepository()
	require.NoError(t, repo.Save(context.Background(), []repository.Attempt{
		repository.NewAttempt("old-1", testNow.Add(-2*time.Hour)),
		repository.NewAttempt("old-2", testNow.Add(-90*time.Minute)),
		repository.NewAttempt("fresh", testNow.Add(-time.Minute)),
	}))

	limiter := NewRateLimitService(repo, 5, time.Hour, quietLogger())
	require.True(t, limiter.IsAllowed(context.Background(), "new", testNow))

	attempts, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []repository.Attempt{
		repository.NewAttempt("fresh", testNow.Add(-time.Minute)),
		repository.NewAttempt("new", testNow),
	}, attempts)
}

func TestRateLimitService_DeniedSavesPrunedSet(t *testing.T) {
	repo := repository.NewMemoryAttemptRepository()
	require.NoError(t, repo.Save(context.Background(), []repository.Attempt{
		repository.NewAttempt("stale", testNow.Add(-2*time.Hour)),
		repository.NewAttempt("a", testNow.Add(-time.Minute)),
	}))

	limiter := NewRateLimitService(repo, 1, time.Hour, quietLogger())
	require.False(t, limiter.IsAllowed(context.Background(), "a", testNow))
	assert.Equal(t, 1, repo.Len())
}

func TestRateLimitService_ZeroAttemptsAlwaysDenies(t *testing.T) {
	repo := repository.NewMemoryAttemptRepository()
	limiter := NewRateLimitService(repo, 0, time.Hour, quietLogger())

	for i := 0; i < 3; i++ {
		assert.False(t, limiter.IsAllowed(context.Background(), "a", testNow))
	}
	assert.Equal(t, 0, repo.Len())
}

func TestRateLimitService_CorruptStoreFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attempts.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))

	repo := repository.NewFileAttemptRepository(path)
	limiter := NewRateLimitService(repo, 1, time.Hour, quietLogger())

	assert.True(t, limiter.IsAllowed(context.Background(), "a", testNow))

	attempts, err := repo.Load(context.Background())
	require.NoError(t, err, "store is rewritten with valid state")
	assert.Len(t, attempts, 1)
}

type failingRepo struct{}

func (failingRepo) Load(context.Context) ([]repository.Attempt, error) {
	return nil, errors.New("disk on fire")
}

func (failingRepo) Save(context.Context, []repository.Attempt) error {
	return errors.New("disk on fire")
}

func TestRateLimitService_UnavailableStoreFailsOpen(t *testing.T) {
	loadErrors := testutil.ToFloat64(metrics.RateLimitStoreErrors.WithLabelValues("load"))
	saveErrors := testutil.ToFloat64(metrics.RateLimitStoreErrors.WithLabelValues("save"))

	limiter := NewRateLimitService(failingRepo{}, 1, time.Hour, quietLogger())
	for i := 0; i < 3; i++ {
		assert.True(t, limiter.IsAllowed(context.Background(), "a", testNow))
	}

	assert.Equal(t, loadErrors+3, testutil.ToFloat64(metrics.RateLimitStoreErrors.WithLabelValues("load")))
	assert.Equal(t, saveErrors+3, testutil.ToFloat64(metrics.RateLimitStoreErrors.WithLabelValues("save")))
}

func TestRateLimitService_StatusAndReset(t *testing.T) {
	repo := repository.NewMemoryAttemptRepository()
	limiter := NewRateLimitService(repo, 3, time.Hour, quietLogger())
	ctx := context.Background()

	require.True(t, limiter.IsAllowed(ctx, "a", testNow.Add(-30*time.Minute)))
	require.True(t, limiter.IsAllowed(ctx, "a", testNow))

	status, err := limiter.Status(ctx, "a", testNow)
	require.NoError(t, err)
	assert.Equal(t, LimitStatus{
		Identity:  "a",
		Used:      2,
		Remaining: 1,
		Limit:     3,
		ResetAt:   testNow.Add(30 * time.Minute),
	}, status)
	assert.Equal(t, 2, repo.Len(), "status must not record an attempt")

	require.NoError(t, limiter.Reset(ctx))
	status, err = limiter.Status(ctx, "a", testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, status.Used)
	assert.True(t, status.ResetAt.IsZero())
}

// barrierRepo holds every Load until n callers have loaded, forcing
// concurrent requests to read the same snapshot.
type barrierRepo struct {
	*repository.MemoryAttemptRepository
	wg sync.WaitGroup
}

func newBarrierRepo(n int) *barrierRepo {
	r := &barrierRepo{MemoryAttemptRepository: repository.NewMemoryAttemptRepository()}
	r.wg.Add(n)
	return r
}

func (r *barrierRepo) Load(ctx context.Context) ([]repository.Attempt, error) {
	attempts, err := r.MemoryAttemptRepository.Load(ctx)
	r.wg.Done()
	r.wg.Wait()
	return attempts, err
}

// The limit is best-effort: concurrent requests that read the store before
// either one saves are all admitted.
func TestRateLimitService_ConcurrentRequestsMayExceedLimit(t *testing.T) {
	repo := newBarrierRepo(2)
	limiter := NewRateLimitService(repo, 1, time.Hour, quietLogger())

	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = limiter.IsAllowed(context.Background(), "a", testNow)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, []bool{true, true}, results, "both requests pass the check against the same snapshot")
	assert.Equal(t, 1, repo.Len(), "last save wins")
}
