package app

import (
	"mentor-portal/internal/config"
	"mentor-portal/internal/identity"
	"mentor-portal/internal/logger"
	"mentor-portal/internal/redis"
)

type Infra struct {
	Redis  *redis.Client
	Stores identity.Factory
}

func setupInfra(cfg config.Config) (*Infra, error) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, identity records kept in memory", nil)
		return &Infra{Stores: identity.NewMemoryFactory()}, nil
	}

	redisClient, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, err
	}

	logger.Info("redis ready", map[string]any{
		"addr": cfg.RedisAddr,
	})

	return &Infra{
		Redis:  redisClient,
		Stores: identity.NewRedisFactory(redisClient.Client),
	}, nil
}

func (i *Infra) Close() error {
	if i.Redis == nil {
		return nil
	}
	return i.Redis.Close()
}
