package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig addresses the Redis instance and names the key and channel used.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Key      string        `mapstructure:"key"`
	Channel  string        `mapstructure:"channel"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// NewRedisClient opens a client for cfg.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// redisCmds is the part of *redis.Client the sink uses.
type redisCmds interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisSink stores the snapshot under a key that expires if the controller stops updating it,
// and announces it on a pub/sub channel.
type RedisSink struct {
	client  redisCmds
	key     string
	channel string
	ttl     time.Duration
}

// NewRedisSink builds a sink. An empty channel disables the announcement.
func NewRedisSink(client redisCmds, key, channel string, ttl time.Duration) *RedisSink {
	return &RedisSink{client: client, key: key, channel: channel, ttl: ttl}
}

func (r *RedisSink) Name() string { return "redis" }

func (r *RedisSink) Publish(ctx context.Context, payload []byte) error {
	if err := r.client.Set(ctx, r.key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", r.key, err)
	}
	if r.channel == "" {
		return nil
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to channel %s: %w", r.channel, err)
	}
	return nil
}
