package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/encoding/json"

	"github.com/priestd09/sourcegraph/pkg/validator"
)

type RedisConfig struct {
	Client redis.UniversalClient `validate:"required"`
}

type Redis struct {
	Config RedisConfig
}

var _ Cache = (*Redis)(nil)

func NewRedis(conf RedisConfig) (*Redis, error) {
	if err := validator.Validate(conf); err != nil {
		return nil, err
	}

	return &Redis{
		Config: conf,
	}, nil
}

func (c *Redis) GetAs(ctx context.Context, key string, out interface{}) error {
	entry, err := c.Config.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrKeyNotExist
	}

	if err != nil {
		return fmt.Errorf("redis cache key '%s' fetch error: %w", key, err)
	}

	err = json.Unmarshal(entry, out)
	if err != nil {
		return fmt.Errorf("redis cache key '%s' decode error: %w", key, err)
	}

	return nil
}

func (c *Redis) SetExp(ctx context.Context, key string, inValue interface{}, expireDur time.Duration) error {
	payload, err := json.Marshal(inValue)
	if err != nil {
		return fmt.Errorf("redis cache key '%s' encode error: %w", key, err)
	}

	err = c.Config.Client.Set(ctx, key, payload, expireDur).Err()
	if err != nil {
		return fmt.Errorf("redis cache key '%s' store error: %w", key, err)
	}

	return nil
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	err := c.Config.Client.Del(ctx, key).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis cache key '%s' delete error: %w", key, err)
	}

	return nil
}
