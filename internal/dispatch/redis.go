package dispatch

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/soltixdb/clusterview/internal/config"
	"github.com/soltixdb/clusterview/internal/utils"
)

// RedisPublisher appends commands to Redis Streams, one stream per subject
type RedisPublisher struct {
	client *redis.Client
	stream string
}

// NewRedisPublisher connects to redis. URL may be a redis:// URL or a bare
// host:port.
func NewRedisPublisher(cfg config.QueueConfig) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{
			Addr:     cfg.URL,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), utils.DefaultStoreDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisPublisherWithClient(client, cfg.RedisStream), nil
}

// NewRedisPublisherWithClient wraps an existing client
func NewRedisPublisherWithClient(client *redis.Client, stream string) *RedisPublisher {
	if stream == "" {
		stream = "stream"
	}
	return &RedisPublisher{client: client, stream: stream}
}

// streamName converts a subject to a Redis stream name
func (p *RedisPublisher) streamName(subject string) string {
	return fmt.Sprintf("%s:%s", p.stream, subject)
}

// Publish appends the command to the subject's stream
func (p *RedisPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	stream := p.streamName(subject)

	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		ID:     "*",
		Values: map[string]interface{}{
			"data": data,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to Redis stream %s: %w", stream, err)
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
