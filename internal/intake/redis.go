package intake

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/RichardoC/dentalchat/internal/models"
	"github.com/redis/go-redis/v9"
)

const DefaultStream = "leads:intake"

// RedisPublisher appends each lead to a Redis stream for follow-up workers.
type RedisPublisher struct {
	rdb    *redis.Client
	stream string
}

func NewRedisPublisher(rdb *redis.Client, stream string) *RedisPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisPublisher{rdb: rdb, stream: stream}
}

func (p *RedisPublisher) Publish(ctx context.Context, lead *models.Lead) error {
	payload, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("failed to marshal lead: %w", err)
	}
	if err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"lead_id": lead.ID.String(),
			"kind":    string(lead.Kind),
			"lead":    string(payload),
		},
	}).Err(); err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}
	return nil
}
