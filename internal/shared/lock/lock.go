// Package lock 基于Redis SETNX的按键互斥锁，用于串行化同一审批单的状态流转。
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockBusy = errors.New("lock busy")

const defaultTTL = 5 * time.Second

// 只在持有者token匹配时删除，避免释放他人持有的锁
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// Locker 按键互斥锁。rdb为nil时退化为无锁（单写场景、测试环境）。
type Locker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLocker(rdb *redis.Client) *Locker {
	return &Locker{rdb: rdb, ttl: defaultTTL}
}

// Acquire 抢占指定键的锁。抢不到返回ErrLockBusy，成功时返回释放函数。
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	if l == nil || l.rdb == nil {
		return func() {}, nil
	}

	token := uuid.New().String()
	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockBusy
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		l.rdb.Eval(releaseCtx, releaseScript, []string{key}, token)
	}
	return release, nil
}
