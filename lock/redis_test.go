package lock

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memScripter emulates SET NX and the release script.
type memScripter struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	failSet error
}

func newMemScripter() *memScripter {
	return &memScripter{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memScripter) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return redis.NewBoolResult(false, m.failSet)
	}
	if _, ok := m.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.values[key] = value.(string)
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *memScripter) release(keys []string, args []interface{}) *redis.Cmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[keys[0]] == args[0].(string) {
		delete(m.values, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (m *memScripter) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return m.release(keys, args)
}

func (m *memScripter) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return m.release(keys, args)
}

func (m *memScripter) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return m.release(keys, args)
}

func (m *memScripter) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return m.release(keys, args)
}

func (m *memScripter) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (m *memScripter) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func (m *memScripter) held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	return ok
}

func TestKey(t *testing.T) {
	k := Key("https://example.com")
	assert.True(t, strings.HasPrefix(k, keyPrefix))
	assert.Len(t, strings.TrimPrefix(k, keyPrefix), 64)
	assert.Equal(t, k, Key("https://example.com"))
	assert.NotEqual(t, k, Key("https://example.org"))
}

func TestTryLock(t *testing.T) {
	ctx := context.Background()
	mem := newMemScripter()
	locker := NewRedisLocker(mem, time.Minute)

	unlock, ok, err := locker.TryLock(ctx, "https://example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mem.held(Key("https://example.com")))
	assert.Equal(t, time.Minute, mem.ttls[Key("https://example.com")])

	_, ok, err = locker.TryLock(ctx, "https://example.com")
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	other, ok, err := locker.TryLock(ctx, "https://example.org")
	require.NoError(t, err)
	assert.True(t, ok, "locks are per url")
	other()

	unlock()
	assert.False(t, mem.held(Key("https://example.com")))

	_, ok, err = locker.TryLock(ctx, "https://example.com")
	require.NoError(t, err)
	assert.True(t, ok, "lock is free after release")
}

func TestUnlockKeepsForeignLock(t *testing.T) {
	ctx := context.Background()
	mem := newMemScripter()
	locker := NewRedisLocker(mem, time.Minute)

	unlock, ok, err := locker.TryLock(ctx, "https://example.com")
	require.NoError(t, err)
	require.True(t, ok)

	// Simulate expiry and takeover by another holder.
	mem.mu.Lock()
	mem.values[Key("https://example.com")] = "someone-else"
	mem.mu.Unlock()

	unlock()
	assert.True(t, mem.held(Key("https://example.com")))
}

func TestTryLockBackendError(t *testing.T) {
	mem := newMemScripter()
	mem.failSet = errors.New("connection refused")

	_, ok, err := NewRedisLocker(mem, time.Minute).TryLock(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.False(t, ok)
}
