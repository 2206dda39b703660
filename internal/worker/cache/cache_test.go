package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingQuoter struct {
	calls int
	quote decimal.Decimal
	err   error
}

func (q *countingQuoter) Quote(context.Context, string, string, decimal.Decimal) (decimal.Decimal, error) {
	q.calls++
	return q.quote, q.err
}

func TestPriceCacheHit(t *testing.T) {
	next := &countingQuoter{quote: decimal.NewFromInt(3000)}
	c := NewPriceCache(next, zap.NewNop(), nil, time.Minute)

	for i := 0; i < 3; i++ {
		out, err := c.Quote(context.Background(), "WETH", "USDC", decimal.NewFromInt(1))
		require.NoError(t, err)
		assert.True(t, out.Equal(decimal.NewFromInt(3000)))
	}
	assert.Equal(t, 1, next.calls)
}

func TestPriceCacheSkipsErrors(t *testing.T) {
	next := &countingQuoter{err: errors.New("unavailable")}
	c := NewPriceCache(next, zap.NewNop(), nil, time.Minute)

	_, err := c.Quote(context.Background(), "RUG", "USDC", decimal.NewFromInt(1))
	require.Error(t, err)
	_, err = c.Quote(context.Background(), "RUG", "USDC", decimal.NewFromInt(1))
	require.Error(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestLocalRunLock(t *testing.T) {
	l := NewLocalRunLock()

	release, ok, err := l.TryAcquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryAcquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	release2, ok, err := l.TryAcquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	release2()
}

// fakeLockRedis 只实现锁需要的 SETNX 和两段脚本
type fakeLockRedis struct {
	mu        sync.Mutex
	values    map[string]string
	refreshes int
	releases  int
}

func newFakeLockRedis() *fakeLockRedis {
	return &fakeLockRedis{values: map[string]string{}}
}

func (f *fakeLockRedis) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeLockRedis) EvalSha(_ context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values[keys[0]] != args[0].(string) {
		return redis.NewCmdResult(int64(0), nil)
	}
	switch sha1 {
	case refreshScript.Hash():
		f.refreshes++
	case releaseScript.Hash():
		f.releases++
		delete(f.values, keys[0])
	}
	return redis.NewCmdResult(int64(1), nil)
}

func (f *fakeLockRedis) Eval(context.Context, string, []string, ...interface{}) *redis.Cmd {
	return redis.NewCmdResult(nil, errors.New("unsupported"))
}

func (f *fakeLockRedis) EvalRO(context.Context, string, []string, ...interface{}) *redis.Cmd {
	return redis.NewCmdResult(nil, errors.New("unsupported"))
}

func (f *fakeLockRedis) EvalShaRO(context.Context, string, []string, ...interface{}) *redis.Cmd {
	return redis.NewCmdResult(nil, errors.New("unsupported"))
}

func (f *fakeLockRedis) ScriptExists(context.Context, ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(nil, errors.New("unsupported"))
}

func (f *fakeLockRedis) ScriptLoad(context.Context, string) *redis.StringCmd {
	return redis.NewStringResult("", errors.New("unsupported"))
}

func (f *fakeLockRedis) stats() (refreshes, releases int, held bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, held = f.values["run_lock"]
	return f.refreshes, f.releases, held
}

func TestRedisRunLockRefreshesWhileHeld(t *testing.T) {
	rdb := newFakeLockRedis()
	l := NewRedisRunLock(rdb, "run_lock", 30*time.Millisecond)

	release, ok, err := l.TryAcquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryAcquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	// 持有时间超过 ttl 时锁仍在续期
	assert.Eventually(t, func() bool {
		refreshes, _, _ := rdb.stats()
		return refreshes >= 3
	}, time.Second, 5*time.Millisecond)

	release()
	release()
	refreshes, releases, held := rdb.stats()
	assert.Equal(t, 1, releases)
	assert.False(t, held)

	time.Sleep(50 * time.Millisecond)
	after, _, _ := rdb.stats()
	assert.Equal(t, refreshes, after)

	release2, ok, err := l.TryAcquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	release2()
}
