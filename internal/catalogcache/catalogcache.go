package catalogcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zgoda02/LasCartasZamow/internal/catalogcache/config"
	"github.com/zgoda02/LasCartasZamow/internal/model"
)

// Cache - необязательный read-through кэш каталога перед базой.
// Промах кэша не ошибка: сервис идет в базу
type Cache interface {
	Get(ctx context.Context, id string) (model.Item, bool, error)
	Set(ctx context.Context, item model.Item) error
	Invalidate(ctx context.Context, id string) error
}

const (
	itemKeyPrefix = "item:"
	itemTTL       = 5 * time.Minute
)

// NewCache подключает redis. Пустой адрес отключает кэш
func NewCache(cfg config.Config) Cache {
	if cfg.RedisAddr == "" {
		return noopCache{}
	}
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	return &redisCache{client: client}
}

type redisCache struct {
	client *redis.Client
}

func (c *redisCache) Get(ctx context.Context, id string) (model.Item, bool, error) {
	data, err := c.client.Get(ctx, itemKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Item{}, false, nil
		}
		return model.Item{}, false, err
	}

	var item model.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return model.Item{}, false, err
	}
	return item, true, nil
}

func (c *redisCache) Set(ctx context.Context, item model.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, itemKeyPrefix+item.ID, data, itemTTL).Err()
}

func (c *redisCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, itemKeyPrefix+id).Err()
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, id string) (model.Item, bool, error) {
	return model.Item{}, false, nil
}

func (noopCache) Set(ctx context.Context, item model.Item) error { return nil }

func (noopCache) Invalidate(ctx context.Context, id string) error { return nil }
