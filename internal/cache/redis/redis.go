// Package redis implementa cache.Client sobre Redis.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/strongjohn/internal/cache"
	rdb "github.com/redis/go-redis/v9"
)

type client struct {
	r      *rdb.Client
	prefix string
}

// New crea un cliente Redis. prefix se antepone a todas las keys.
func New(addr, password string, db int, prefix string) cache.Client {
	return &client{
		r: rdb.NewClient(&rdb.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		prefix: prefix,
	}
}

// NewFromClient envuelve un *redis.Client existente (compartido con rate).
func NewFromClient(r *rdb.Client, prefix string) cache.Client {
	return &client{r: r, prefix: prefix}
}

func (c *client) key(k string) string { return c.prefix + k }

func (c *client) Get(ctx context.Context, key string) (string, error) {
	v, err := c.r.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, rdb.Nil) {
			return "", cache.ErrNotFound
		}
		return "", err
	}
	return v, nil
}

func (c *client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.r.Set(ctx, c.key(key), value, ttl).Err()
}

func (c *client) Delete(ctx context.Context, key string) error {
	return c.r.Del(ctx, c.key(key)).Err()
}

func (c *client) Ping(ctx context.Context) error {
	return c.r.Ping(ctx).Err()
}

func (c *client) Close() error { return c.r.Close() }
