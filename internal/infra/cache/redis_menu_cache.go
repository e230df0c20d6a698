package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ordering/internal/domain/model"
	"ordering/internal/usecase"

	"github.com/redis/go-redis/v9"
)

const menuKeyPrefix = "menu:list:"

// RedisMenuCache はメニュー一覧をJSONで持つ。TTLで自然に切れる。
type RedisMenuCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisMenuCache(rdb *redis.Client, ttl time.Duration) *RedisMenuCache {
	return &RedisMenuCache{rdb: rdb, ttl: ttl}
}

func (c *RedisMenuCache) Get(ctx context.Context, key string) ([]model.MenuItem, bool, error) {
	raw, err := c.rdb.Get(ctx, menuKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var items []model.MenuItem
	if err := json.Unmarshal(raw, &items); err != nil {
		// 壊れた値は捨ててミス扱い
		_ = c.rdb.Del(ctx, menuKeyPrefix+key).Err()
		return nil, false, nil
	}
	return items, true, nil
}

func (c *RedisMenuCache) Set(ctx context.Context, key string, items []model.MenuItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, menuKeyPrefix+key, raw, c.ttl).Err()
}

// Invalidate は一覧キャッシュを全部消す
func (c *RedisMenuCache) Invalidate(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, menuKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

var _ usecase.MenuCache = (*RedisMenuCache)(nil)
