package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campusline/platform/shared/logger"
	"github.com/campusline/platform/shared/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp.Channel used to set up a consumer.
type Channel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

type Connection interface {
	Channel() (Channel, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

type DialFunc func(url string) (Connection, error)

// Dial opens a real AMQP connection.
func Dial(url string) (Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return amqpConnection{conn}, nil
}

type amqpConnection struct {
	*amqp.Connection
}

func (c amqpConnection) Channel() (Channel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// Handler consumes deliveries until the channel closes or ctx is cancelled.
// It must not return before its in-flight deliveries are acked or nacked.
type Handler func(ctx context.Context, deliveries <-chan amqp.Delivery)

type Config struct {
	URL            string
	Queue          string
	Prefetch       int
	ReconnectDelay time.Duration
}

// RabbitMQ owns the broker connection for one durable queue and keeps a
// consumer attached to it, reconnecting after a fixed delay.
type RabbitMQ struct {
	config Config
	dial   DialFunc
	log    logger.Logger
}

func NewRabbitMQ(config Config, log logger.Logger) *RabbitMQ {
	return NewRabbitMQWithDialer(config, Dial, log)
}

func NewRabbitMQWithDialer(config Config, dial DialFunc, log logger.Logger) *RabbitMQ {
	return &RabbitMQ{
		config: config,
		dial:   dial,
		log:    log.WithFields(logger.Fields{"queue": config.Queue}),
	}
}

// Run blocks until ctx is cancelled. Every failed or dropped session is
// followed by a reconnect attempt; there is no attempt limit.
func (r *RabbitMQ) Run(ctx context.Context, handle Handler) error {
	for {
		err := r.session(ctx, handle)
		if ctx.Err() != nil {
			r.log.Info("RabbitMQ consumer stopped", nil)
			return nil
		}

		metrics.RecordBrokerReconnect()
		r.log.Error("RabbitMQ connection lost, reconnecting", logger.Fields{
			"error": err,
			"delay": r.config.ReconnectDelay.String(),
		})

		t := time.NewTimer(r.config.ReconnectDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			r.log.Info("RabbitMQ consumer stopped", nil)
			return nil
		case <-t.C:
		}
	}
}

func (r *RabbitMQ) session(ctx context.Context, handle Handler) error {
	conn, err := r.dial(r.config.URL)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(r.config.Prefetch, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}
	if _, err := ch.QueueDeclare(r.config.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	deliveries, err := ch.Consume(r.config.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	r.log.Info("Connected to RabbitMQ, waiting for messages", logger.Fields{"prefetch": r.config.Prefetch})

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		handle(sessionCtx, deliveries)
	}()

	select {
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	case amqpErr := <-closed:
		cancel()
		<-done
		if amqpErr == nil {
			return errors.New("connection closed")
		}
		return amqpErr
	case <-done:
		return errors.New("delivery channel closed")
	}
}
