package config

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// RedisAddress returns REDIS_ADDRESS, defaulting to the local development instance
func RedisAddress() string {
	return GetEnvOrDefault("REDIS_ADDRESS", "localhost:6379")
}

// InitRedisServer connects to Redis and pings it. It returns an error instead of
// panicking so the service can run without a cache.
func InitRedisServer(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     RedisAddress(),
		Password: GetEnv("REDIS_PASSWORD"),
		DB:       0,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// AsynqRedisOpt builds the connection options asynq clients and servers share
func AsynqRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     RedisAddress(),
		Password: GetEnv("REDIS_PASSWORD"),
		DB:       0,
	}
}
