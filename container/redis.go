package container

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/priestd09/sourcegraph/pkg/validator"
)

// RedisConnMaker opens every configured redis connection up front, keyed
// by the label used in the config file.
type RedisConnMaker struct {
	ctx    context.Context
	conf   ConfigRedis
	redis  map[string]redis.UniversalClient
	closer []Closer
}

func NewRedisConnMaker(ctx context.Context, conf ConfigRedis) (*RedisConnMaker, error) {
	instance := &RedisConnMaker{
		ctx:    ctx,
		conf:   conf,
		redis:  map[string]redis.UniversalClient{},
		closer: make([]Closer, 0),
	}

	err := instance.connect()
	if err != nil {
		// close previous opened connection if error happen
		if _err := instance.CloseAll(); _err != nil {
			err = fmt.Errorf("close redis error: %w: %s", err, _err)
		}

		return nil, err
	}

	return instance, nil
}

func (i *RedisConnMaker) connect() error {
	ctx := i.ctx

	for key, connInfo := range i.conf {
		key = strings.TrimSpace(strings.ToLower(key))
		if err := validator.Var(key, "required,alphanum"); err != nil {
			return fmt.Errorf("error connecting to redis key '%s': %w", key, err)
		}

		if len(connInfo.Address) == 0 {
			return fmt.Errorf("redis %s has no address", key)
		}

		var redisClient redis.UniversalClient
		switch connInfo.Mode {
		case "single":
			redisClient = redis.NewClient(&redis.Options{
				Addr:     connInfo.Address[0],
				Username: connInfo.Username,
				Password: connInfo.Password,
				DB:       connInfo.DB,
			})

		case "sentinel":
			redisClient = redis.NewFailoverClient(&redis.FailoverOptions{
				SentinelAddrs: connInfo.Address,
				Username:      connInfo.Username,
				Password:      connInfo.Password,
				DB:            connInfo.DB,
				MasterName:    connInfo.MasterName,
			})

		case "cluster":
			// cluster mode is not support DB selection
			redisClient = redis.NewClusterClient(&redis.ClusterOptions{
				Addrs:    connInfo.Address,
				Username: connInfo.Username,
				Password: connInfo.Password,
			})

		default:
			return fmt.Errorf("unknown redis mode: %s", connInfo.Mode)
		}

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("error ping redis %s: %w", key, err)
		}

		i.redis[key] = redisClient
		i.closer = append(i.closer, NewNamedCloser(key, redisClient)) // register the closer
	}

	return nil
}

func (i *RedisConnMaker) Get(key string) (redis.UniversalClient, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	v, ok := i.redis[key]
	if !ok {
		return nil, fmt.Errorf("key %s is not exist on redis list", key)
	}

	return v, nil
}

func (i *RedisConnMaker) CloseAll() error {
	var err error
	for _, closer := range i.closer {
		if closer == nil {
			continue
		}

		if e := closer.Close(); e != nil {
			err = fmt.Errorf("%v: %w", err, e)
		}
	}

	return err
}
