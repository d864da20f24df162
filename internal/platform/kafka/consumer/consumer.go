package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"trailview/pkg/platform/sentinel"
)

// Message is a transport-neutral view of one Kafka record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// Handler processes one message. Returning an error stops the consumer
// without committing the batch, so the message is redelivered after restart.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

// Consumer polls a consumer group and commits offsets after each fully
// handled batch.
type Consumer struct {
	client  *kgo.Client
	logger  *slog.Logger
	kgoOpts []kgo.Opt
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithLogger sets the consumer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClientOptions appends raw franz-go options, e.g. a reset offset.
func WithClientOptions(opts ...kgo.Opt) Option {
	return func(c *Consumer) {
		c.kgoOpts = append(c.kgoOpts, opts...)
	}
}

// New creates a consumer group member for topic.
func New(brokers []string, group, topic string, opts ...Option) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	c := &Consumer{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	kopts := append([]kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.DisableAutoCommit(),
	}, c.kgoOpts...)
	client, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	c.client = client
	return c, nil
}

// Client exposes the underlying franz-go client, e.g. for admin calls.
func (c *Consumer) Client() *kgo.Client {
	return c.client
}

// Run polls until ctx is cancelled or the handler fails.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return sentinel.ErrInvalidState
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Warn("kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var handleErr error
		fetches.EachRecord(func(r *kgo.Record) {
			if handleErr != nil {
				return
			}
			msg := &Message{
				Topic:     r.Topic,
				Partition: r.Partition,
				Offset:    r.Offset,
				Key:       r.Key,
				Value:     r.Value,
				Timestamp: r.Timestamp,
			}
			if err := handler.Handle(ctx, msg); err != nil {
				handleErr = fmt.Errorf("handle %s[%d]@%d: %w", r.Topic, r.Partition, r.Offset, err)
			}
		})
		if handleErr != nil {
			return handleErr
		}

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			c.logger.Error("kafka commit failed", "error", err)
		}
	}
}

// Close leaves the group and closes the client.
func (c *Consumer) Close() {
	c.client.Close()
}
