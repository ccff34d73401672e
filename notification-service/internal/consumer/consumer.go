package consumer

import (
	"context"
	"errors"
	"sync"

	"github.com/campusline/platform/notification-service/internal/notification"
	"github.com/campusline/platform/shared/logger"
	"github.com/campusline/platform/shared/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, job notification.Job) error
}

// Consumer turns queue deliveries into provider calls. A delivery is acked
// when sent or when it can never be sent (unknown type, bad payload), and
// nacked with requeue when the provider fails.
type Consumer struct {
	dispatcher Dispatcher
	log        logger.Logger
}

func New(dispatcher Dispatcher, log logger.Logger) *Consumer {
	return &Consumer{dispatcher: dispatcher, log: log}
}

// Consume handles deliveries concurrently until the channel closes or ctx is
// cancelled, then waits for in-flight deliveries. The broker prefetch bounds
// how many are in flight. Sends already started are not cancelled with ctx.
func (c *Consumer) Consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.Handle(context.WithoutCancel(ctx), d)
			}()
		}
	}
}

func (c *Consumer) Handle(ctx context.Context, d amqp.Delivery) {
	fields := logger.Fields{"deliveryTag": d.DeliveryTag, "redelivered": d.Redelivered}

	job, err := notification.Decode(d.Body)
	switch {
	case errors.Is(err, notification.ErrUnknownType):
		metrics.RecordNotification("unknown", metrics.OutcomeDropped)
		fields["error"] = err
		c.log.Warn("unknown notification type received, dropping", fields)
		c.ack(d, fields)
		return
	case err != nil:
		metrics.RecordNotification("invalid", metrics.OutcomeDropped)
		fields["error"] = err
		c.log.Error("undeliverable notification message, dropping", fields)
		c.ack(d, fields)
		return
	}

	fields["type"] = string(job.Type())
	c.log.Debug("notification message received", fields)

	if err := c.dispatcher.Dispatch(ctx, job); err != nil {
		fields["error"] = err
		c.log.Error("error processing notification, requeueing", fields)
		if nackErr := d.Nack(false, true); nackErr != nil {
			fields["nackError"] = nackErr
			c.log.Error("failed to nack delivery", fields)
		}
		return
	}
	c.ack(d, fields)
}

func (c *Consumer) ack(d amqp.Delivery, fields logger.Fields) {
	if err := d.Ack(false); err != nil {
		fields["ackError"] = err
		c.log.Error("failed to ack delivery", fields)
	}
}
