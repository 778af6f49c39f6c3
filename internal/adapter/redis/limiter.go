package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"perritofeliz/internal/domain"
)

// LoginLimiter counts attempts per key in a fixed window.
type LoginLimiter struct {
	rdb    *goredis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewLoginLimiter allows limit attempts per key within window.
func NewLoginLimiter(rdb *goredis.Client, limit int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{rdb: rdb, limit: limit, window: window, prefix: "pf:login"}
}

var _ domain.LoginLimiter = (*LoginLimiter)(nil)

func (l *LoginLimiter) key(k string) string { return l.prefix + ":" + k }

// Allow records one attempt and reports whether it is within the limit.
// The counter and its window are set in one transaction; EXPIRE NX also
// restores the window of a counter left without one. Redis errors fail open.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.key(key)
	var count *goredis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		count = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return true, err
	}
	return count.Val() <= int64(l.limit), nil
}
