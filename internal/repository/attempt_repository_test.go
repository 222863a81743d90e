package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAttempts() []Attempt {
	base := time.Unix(1_700_000_000, 0)
	return []Attempt{
		NewAttempt("203.0.113.7", base),
		NewAttempt("198.51.100.2", base.Add(time.Minute)),
		NewAttempt("203.0.113.7", base.Add(2*time.Minute)),
	}
}

func newRedisRepo(t *testing.T, opts ...RedisAttemptOption) (AttemptRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisAttemptRepository(rdb, opts...), mr
}

func TestAttemptRepositories_RoundTrip(t *testing.T) {
	redisRepo, _ := newRedisRepo(t)

	repos := map[string]AttemptRepository{
		"file":   NewFileAttemptRepository(filepath.Join(t.TempDir(), "attempts.json")),
		"memory": NewMemoryAttemptRepository(),
		"redis":  redisRepo,
	}

	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := repo.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, got, "fresh store should be empty")

			want := sampleAttempts()
			require.NoError(t, repo.Save(ctx, want))

			got, err = repo.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			// Save replaces rather than appends
			require.NoError(t, repo.Save(ctx, want[:1]))
			got, err = repo.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want[:1], got)

			require.NoError(t, repo.Save(ctx, nil))
			got, err = repo.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestFileAttemptRepository_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attempts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileAttemptRepository(path).Load(context.Background())
	assert.Error(t, err)
}

func TestFileAttemptRepository_WireFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attempts.json")
	repo := NewFileAttemptRepository(path)

	require.NoError(t, repo.Save(context.Background(), []Attempt{{Identity: "10.0.0.1", Timestamp: 42}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"ip":"10.0.0.1","timestamp":42}]`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestRedisAttemptRepository_TTL(t *testing.T) {
	repo, mr := newRedisRepo(t, WithRedisKey("test:attempts"), WithRedisTTL(time.Hour))

	require.NoError(t, repo.Save(context.Background(), sampleAttempts()))
	assert.True(t, mr.Exists("test:attempts"))
	assert.Equal(t, time.Hour, mr.TTL("test:attempts"))

	mr.FastForward(time.Hour + time.Second)
	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisAttemptRepository_Unavailable(t *testing.T) {
	repo, mr := newRedisRepo(t)
	mr.Close()

	_, err := repo.Load(context.Background())
	assert.Error(t, err)
}
