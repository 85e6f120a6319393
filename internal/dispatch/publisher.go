package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/soltixdb/clusterview/internal/config"
	"github.com/soltixdb/clusterview/internal/utils"
)

// Publisher publishes one message and waits for the transport to accept it
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}

// NewPublisher creates a Publisher for the configured queue type.
// Default is NATS if type is not specified.
func NewPublisher(cfg config.QueueConfig) (Publisher, error) {
	queueType := utils.QueueType(strings.ToLower(cfg.Type))
	if queueType == "" {
		queueType = utils.QueueTypeNATS
	}

	switch queueType {
	case utils.QueueTypeNATS:
		return NewNATSPublisher(cfg)
	case utils.QueueTypeRedis:
		return NewRedisPublisher(cfg)
	case utils.QueueTypeKafka:
		return NewKafkaPublisher(cfg)
	case utils.QueueTypeMemory:
		return NewMemoryPublisher(), nil
	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: nats, redis, kafka, memory)", queueType)
	}
}
