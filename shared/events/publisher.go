package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/campusline/platform/shared/metrics"
	"github.com/redis/go-redis/v9"
)

type Publisher struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewPublisher(client redis.Cmdable) *Publisher {
	return &Publisher{client: client, now: time.Now}
}

func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	eventJSON, err := encodeEvent(eventType, p.now().UTC(), data)
	if err != nil {
		metrics.RecordEventPublished(eventType, false)
		return err
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"event": eventJSON,
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		metrics.RecordEventPublished(eventType, false)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.RecordEventPublished(eventType, true)
	return nil
}

func encodeEvent(eventType string, ts time.Time, data any) ([]byte, error) {
	eventJSON, err := json.Marshal(Event{Type: eventType, Timestamp: ts, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return eventJSON, nil
}
