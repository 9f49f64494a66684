// Package lock provides a Redis-backed per-URL lock for archive submissions.
package lock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"arkive/archiver"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "arkive:submit:"

// releaseScript deletes the key only if it still holds this holder's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements archiver.Locker with SET NX and a TTL.
type RedisLocker struct {
	client Scripter
	ttl    time.Duration
}

// Scripter is the subset of the redis client the locker needs.
type Scripter interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

var _ archiver.Locker = (*RedisLocker)(nil)

// NewRedisLocker returns a locker whose locks expire after ttl if never released.
func NewRedisLocker(client Scripter, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

// Key returns the Redis key guarding url.
func Key(url string) string {
	h := sha256.Sum256([]byte(url))
	return keyPrefix + hex.EncodeToString(h[:])
}

// TryLock acquires the lock for url without waiting.
func (l *RedisLocker) TryLock(ctx context.Context, url string) (func(), bool, error) {
	key := Key(url)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock for '%s': %w", url, err)
	}
	if !ok {
		return nil, false, nil
	}
	unlock := func() {
		// Release must outlive a cancelled request context.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}
	return unlock, true, nil
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("unable to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}
