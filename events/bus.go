package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// HandlerFunc processes one message. Returned errors are reported back to
// the publisher; the message is acked either way.
type HandlerFunc func(ctx context.Context, msg *message.Message) error

// Bus is an in-process pub/sub. Publish blocks until every subscriber has
// handled the message and returns their errors joined.
type Bus struct {
	pubSub *gochannel.GoChannel
	logger *slog.Logger

	mu       sync.Mutex
	failures map[string][]error
	// gochannel копирует сообщение и подменяет его контекст, поэтому
	// контекст издателя передаём отдельно по UUID.
	contexts map[string]context.Context

	wg sync.WaitGroup
}

func NewBus(logger *slog.Logger) *Bus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{BlockPublishUntilSubscriberAck: true},
		watermill.NewSlogLogger(logger),
	)
	return &Bus{
		pubSub:   pubSub,
		logger:   logger,
		failures: make(map[string][]error),
		contexts: make(map[string]context.Context),
	}
}

func (b *Bus) Subscribe(ctx context.Context, topic string, handler HandlerFunc) error {
	messages, err := b.pubSub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range messages {
			msgCtx := b.publisherContext(msg)
			if handleErr := handler(msgCtx, msg); handleErr != nil {
				b.logger.ErrorContext(msgCtx, "event handler failed",
					slog.String("topic", topic),
					slog.String("message_uuid", msg.UUID),
					slog.Any("error", handleErr),
				)
				b.recordFailure(msg.UUID, handleErr)
			}
			// Nack в gochannel приводит к бесконечной переотправке, поэтому всегда Ack.
			msg.Ack()
		}
	}()
	return nil
}

func (b *Bus) Publish(ctx context.Context, topic string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)

	b.mu.Lock()
	b.contexts[msg.UUID] = ctx
	b.mu.Unlock()

	err = b.pubSub.Publish(topic, msg)
	failures := b.takeFailures(msg.UUID)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	return failures
}

func (b *Bus) PublishMatchCompleted(ctx context.Context, matchID string) error {
	return b.Publish(ctx, TopicMatchCompleted, MatchCompleted{MatchID: matchID, OccurredAt: time.Now().UTC()})
}

func (b *Bus) PublishMatchWithdrawn(ctx context.Context, matchID, reason string) error {
	return b.Publish(ctx, TopicMatchWithdrawn, MatchWithdrawn{MatchID: matchID, Reason: reason, OccurredAt: time.Now().UTC()})
}

// Close stops the pub/sub and waits for subscriber goroutines to drain.
func (b *Bus) Close() error {
	err := b.pubSub.Close()
	b.wg.Wait()
	return err
}

func (b *Bus) recordFailure(uuid string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[uuid] = append(b.failures[uuid], err)
}

func (b *Bus) publisherContext(msg *message.Message) context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ctx, ok := b.contexts[msg.UUID]; ok {
		return ctx
	}
	return msg.Context()
}

// takeFailures also drops the publisher context registered for uuid.
func (b *Bus) takeFailures(uuid string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	errs := b.failures[uuid]
	delete(b.failures, uuid)
	delete(b.contexts, uuid)
	return errors.Join(errs...)
}
