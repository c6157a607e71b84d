package dedup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func TestRedisStore_Admit(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	store := NewRedisStoreFromClient(client, time.Hour)
	ctx := context.Background()

	outcome, err := store.Admit(ctx, "RLS-1", "fp-1")
	require.NoError(t, err)
	assert.Equal(t, Accepted, outcome)

	outcome, err = store.Admit(ctx, "RLS-1", "fp-1")
	require.NoError(t, err)
	assert.Equal(t, Duplicate, outcome)

	// Same fingerprint, different release context
	outcome, err = store.Admit(ctx, "RLS-2", "fp-1")
	require.NoError(t, err)
	assert.Equal(t, Accepted, outcome)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	store := NewRedisStoreFromClient(client, time.Minute)
	ctx := context.Background()

	outcome, err := store.Admit(ctx, "RLS-1", "fp-ttl")
	require.NoError(t, err)
	assert.Equal(t, Accepted, outcome)

	// Inside the retry window the fingerprint is still held.
	mr.FastForward(30 * time.Second)
	outcome, err = store.Admit(ctx, "RLS-1", "fp-ttl")
	require.NoError(t, err)
	assert.Equal(t, Duplicate, outcome)

	// Past the retention window it may be readmitted; the signal
	// store's unique index is the backstop from here on.
	mr.FastForward(2 * time.Minute)
	outcome, err = store.Admit(ctx, "RLS-1", "fp-ttl")
	require.NoError(t, err)
	assert.Equal(t, Accepted, outcome)
}

func TestRedisStore_ConcurrentAdmit(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	store := NewRedisStoreFromClient(client, 0)
	ctx := context.Background()

	const callers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	acceptedCount := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := store.Admit(ctx, "RLS-1", "contested")
			if err != nil {
				t.Errorf("Admit() error = %v", err)
				return
			}
			if outcome == Accepted {
				mu.Lock()
				acceptedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, acceptedCount, "SET NX must accept exactly one caller")
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStoreFromClient(client, 0)
	mr.Close()

	_, err := store.Admit(context.Background(), "RLS-1", "fp-1")
	assert.Error(t, err, "a down store must error, not report Duplicate silently")
}
