// Package rate implementa rate limiting fixed-window sobre Redis.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Result es el veredicto de una consulta al limiter.
type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter decide si una key puede ejecutar una acción más.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Rule define el presupuesto de una acción: Max hits por Window.
type Rule struct {
	Name   string
	Max    int64
	Window time.Duration
}

// RedisLimiter: fixed window sencillo (INCR + EXPIRE por ventana).
type RedisLimiter struct {
	Client *rdb.Client
	Prefix string
	Rule   Rule
}

func NewRedisLimiter(client *rdb.Client, rule Rule) *RedisLimiter {
	return &RedisLimiter{Client: client, Prefix: "rl:" + rule.Name + ":", Rule: rule}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.Rule.Window)
	redisKey := fmt.Sprintf("%s%s:%d", l.Prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	pipe := l.Client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.Rule.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate: %w", err)
	}

	hits := incr.Val()
	res := Result{
		Allowed:   hits <= l.Rule.Max,
		Remaining: max64(l.Rule.Max-hits, 0),
	}
	if !res.Allowed {
		// lo que queda de la ventana actual
		res.RetryAfter = winStart.Add(l.Rule.Window).Sub(now)
	}
	return res, nil
}

// NoopLimiter permite todo. Se usa cuando Redis no está configurado.
type NoopLimiter struct{}

func (NoopLimiter) Allow(context.Context, string) (Result, error) {
	return Result{Allowed: true, Remaining: 1}, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
