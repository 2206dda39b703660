package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RunLock 防止同步任务重叠执行
type RunLock interface {
	// TryAcquire 获取成功返回 release，已被占用返回 ok=false
	TryAcquire(ctx context.Context) (release func(), ok bool, err error)
}

// 仅删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// 仅续期自己持有的锁
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type lockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisRunLock 持有期间每 ttl/3 续期一次，同步耗时超过 ttl 也不会被并发任务抢占
type RedisRunLock struct {
	rdb lockClient
	key string
	ttl time.Duration
}

func NewRedisRunLock(rdb lockClient, key string, ttl time.Duration) *RedisRunLock {
	return &RedisRunLock{rdb: rdb, key: key, ttl: ttl}
}

func (l *RedisRunLock) TryAcquire(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			_ = releaseScript.Run(context.Background(), l.rdb, []string{l.key}, token).Err()
		})
	}, true, nil
}

func (l *RedisRunLock) keepAlive(token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	interval := l.ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			n, err := refreshScript.Run(context.Background(), l.rdb, []string{l.key}, token, l.ttl.Milliseconds()).Int()
			if err == nil && n == 0 {
				// 锁已丢失，不再续期
				return
			}
		}
	}
}

// LocalRunLock 未配置 Redis 时的进程内锁
type LocalRunLock struct {
	mu sync.Mutex
}

func NewLocalRunLock() *LocalRunLock {
	return &LocalRunLock{}
}

func (l *LocalRunLock) TryAcquire(context.Context) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return l.mu.Unlock, true, nil
}
