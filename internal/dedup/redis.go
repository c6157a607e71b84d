package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a dedup store backed by a shared Redis instance, so multiple
// pipeline replicas converge on one view of seen fingerprints.
//
// Fingerprints carry a TTL covering plausible webhook retry windows; the
// signal store's unique index remains the backstop for anything readmitted
// after expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
// ttl of 0 retains fingerprints forever.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// NewRedisStoreFromClient wraps an existing client (used by tests).
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(releaseExternalID, fingerprint string) string {
	return fmt.Sprintf("dedup:%s:%s", releaseExternalID, fingerprint)
}

// Admit implements Store using SET NX, which is atomic on the server: of any
// number of concurrent admits for one fingerprint, exactly one sets the key.
func (s *RedisStore) Admit(ctx context.Context, releaseExternalID, fingerprint string) (Outcome, error) {
	set, err := s.client.SetNX(ctx, s.key(releaseExternalID, fingerprint), 1, s.ttl).Result()
	if err != nil {
		// Outcome carries no meaning alongside an error.
		return Accepted, fmt.Errorf("dedup admit failed: %w", err)
	}
	if !set {
		return Duplicate, nil
	}
	return Accepted, nil
}

// Ping implements Store.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
