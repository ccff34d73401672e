package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusline/platform/shared/logger"
	"github.com/redis/go-redis/v9"
)

type Handler func(ctx context.Context, event Event) error

type Subscriber struct {
	client        redis.Cmdable
	group         string
	consumer      string
	stream        string
	handler       Handler
	batchSize     int64
	blockDuration time.Duration
	retryAfter    time.Duration
	log           logger.Logger
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Stream        string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	// RetryAfter is how long a failed entry stays pending before it is
	// claimed and handled again.
	RetryAfter    time.Duration
}

func NewSubscriber(client redis.Cmdable, config SubscriberConfig, log logger.Logger) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockDuration == 0 {
		config.BlockDuration = 5 * time.Second
	}
	if config.RetryAfter == 0 {
		config.RetryAfter = 30 * time.Second
	}

	return &Subscriber{
		client:        client,
		group:         config.Group,
		consumer:      config.Consumer,
		stream:        config.Stream,
		handler:       config.Handler,
		batchSize:     config.BatchSize,
		blockDuration: config.BlockDuration,
		retryAfter:    config.RetryAfter,
		log:           log.WithFields(logger.Fields{"stream": config.Stream, "group": config.Group}),
	}
}

// Start blocks until ctx is cancelled. Entries whose handler fails stay
// pending and are claimed again once idle for RetryAfter.
func (s *Subscriber) Start(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	s.log.Info("subscriber started", logger.Fields{"consumer": s.consumer})

	for {
		if err := s.poll(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("error reading messages", logger.Fields{"error": err})
			t := time.NewTimer(time.Second)
			select {
			case <-ctx.Done():
				t.Stop()
			case <-t.C:
			}
		}
		if ctx.Err() != nil {
			s.log.Info("subscriber stopping", nil)
			return ctx.Err()
		}
	}
}

// poll retries stale pending entries, then reads new ones.
func (s *Subscriber) poll(ctx context.Context) error {
	if err := s.claimPending(ctx); err != nil {
		return err
	}
	return s.readMessages(ctx)
}

func (s *Subscriber) claimPending(ctx context.Context) error {
	start := "0-0"
	for {
		messages, next, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   s.stream,
			Group:    s.group,
			Consumer: s.consumer,
			MinIdle:  s.retryAfter,
			Start:    start,
			Count:    s.batchSize,
		}).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to claim pending messages: %w", err)
		}

		for _, message := range messages {
			s.log.Info("retrying pending message", logger.Fields{"messageId": message.ID})
			s.handle(ctx, message)
		}
		if next == "0-0" || next == "" {
			return nil
		}
		start = next
	}
}

func (s *Subscriber) readMessages(ctx context.Context) error {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, ">"},
		Count:    s.batchSize,
		Block:    s.blockDuration,
	}).Result()

	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			s.handle(ctx, message)
		}
	}

	return nil
}

// handle acks message only when its handler succeeds.
func (s *Subscriber) handle(ctx context.Context, message redis.XMessage) {
	if err := s.processMessage(ctx, message); err != nil {
		s.log.Error("failed to process message", logger.Fields{"messageId": message.ID, "error": err})
		return
	}
	if err := s.client.XAck(ctx, s.stream, s.group, message.ID).Err(); err != nil {
		s.log.Error("failed to ack message", logger.Fields{"messageId": message.ID, "error": err})
	}
}

func (s *Subscriber) processMessage(ctx context.Context, message redis.XMessage) error {
	event, err := decodeMessage(message)
	if err != nil {
		return err
	}
	return s.handler(ctx, event)
}

func decodeMessage(message redis.XMessage) (Event, error) {
	var event Event
	eventData, ok := message.Values["event"].(string)
	if !ok {
		return event, fmt.Errorf("invalid message format")
	}
	if err := json.Unmarshal([]byte(eventData), &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}

// DecodeData re-decodes the generic Data field of an event into out.
func DecodeData(event Event, out any) error {
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
