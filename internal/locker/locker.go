package locker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/holdcart/internal/constants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockBusy 表示等待用户锁超时，同一用户已有操作在执行。
var ErrLockBusy = errors.New("用户操作锁忙")

const lockPollInterval = 25 * time.Millisecond

// UserLocker 串行化同一用户的购物车操作（防止双击并发预留）。
type UserLocker interface {
	Acquire(ctx context.Context, userID uint) (func(), error)
}

// New 根据 Redis 可用性选择实现：多实例部署用 Redis 锁，单机回退进程内锁。
func New(client *redis.Client, ttl, wait time.Duration) UserLocker {
	if client != nil {
		return NewRedisLocker(client, ttl, wait)
	}
	return NewLocalLocker(wait)
}

// RedisLocker 基于 SET NX PX 的跨实例用户锁
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisLocker 创建 Redis 用户锁
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if wait <= 0 {
		wait = 2 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, wait: wait}
}

// Acquire 轮询抢锁直到成功或超出等待时间。释放函数只删除自己持有的锁。
func (l *RedisLocker) Acquire(ctx context.Context, userID uint) (func(), error) {
	key := userLockKey(userID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = unlockScript.Run(releaseCtx, l.client, []string{key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

// LocalLocker 进程内用户锁，Redis 关闭时的单机回退
type LocalLocker struct {
	mu    sync.Mutex
	locks map[uint]*localLock
	wait  time.Duration
}

type localLock struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker 创建进程内用户锁
func NewLocalLocker(wait time.Duration) *LocalLocker {
	if wait <= 0 {
		wait = 2 * time.Second
	}
	return &LocalLocker{
		locks: make(map[uint]*localLock),
		wait:  wait,
	}
}

// Acquire 获取用户锁，等待超时返回 ErrLockBusy
func (l *LocalLocker) Acquire(ctx context.Context, userID uint) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &localLock{ch: make(chan struct{}, 1)}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case entry.ch <- struct{}{}:
		return func() {
			<-entry.ch
			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.locks, userID)
			}
			l.mu.Unlock()
		}, nil
	case <-timer.C:
		l.drop(userID, entry)
		return nil, ErrLockBusy
	case <-ctx.Done():
		l.drop(userID, entry)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) drop(userID uint, entry *localLock) {
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, userID)
	}
	l.mu.Unlock()
}

func userLockKey(userID uint) string {
	return fmt.Sprintf("%s:%d", constants.CartLockKeyPrefix, userID)
}
