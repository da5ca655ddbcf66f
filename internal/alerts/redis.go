package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Publisher is the part of a redis client used to fan alerts out
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher publishes alert JSON on a pub/sub channel
type RedisPublisher struct {
	client  Publisher
	channel string
}

// NewRedisClient connects to redis. url may be a redis:// URL or host:port.
func NewRedisClient(url, password string, db int) (*redis.Client, error) {
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		if password != "" {
			opts.Password = password
		}
		return redis.NewClient(opts), nil
	}

	addr := url
	if addr == "" {
		addr = "localhost:6379"
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), nil
}

// NewRedisPublisher creates a sink publishing on channel
func NewRedisPublisher(client Publisher, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Name implements Sink
func (p *RedisPublisher) Name() string {
	return "redis"
}

// Deliver implements Sink
func (p *RedisPublisher) Deliver(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}
