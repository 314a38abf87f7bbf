package message_broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pauline-si/ai-eng-tech-eval/domain"
	"github.com/pauline-si/ai-eng-tech-eval/utils/log"
)

const subscriberBuffer = 100

// ChannelMessageBroker implements domain.MessageBroker with Go
// channels. Every subscriber of a topic receives every message
// published to it; routing keys travel on the message for subscribers
// to filter on.
type ChannelMessageBroker struct {
	mu          sync.RWMutex
	subscribers map[string][]chan domain.Message
	closed      bool
}

func NewChannelMessageBroker() *ChannelMessageBroker {
	return &ChannelMessageBroker{
		subscribers: make(map[string][]chan domain.Message),
	}
}

// Publish fans the message out to every subscriber of the topic. Slow
// subscribers with a full buffer are skipped rather than blocking the
// publisher.
func (b *ChannelMessageBroker) Publish(ctx context.Context, topic string, routingKey string, message []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("message broker is closed")
	}

	msg := domain.Message{
		Topic:      topic,
		RoutingKey: routingKey,
		Payload:    message,
		Timestamp:  time.Now(),
	}

	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		default:
			log.WithCtx(ctx).Warn("dropping message for slow subscriber",
				zap.String("topic", topic),
				zap.String("routing_key", routingKey))
		}
	}
	return nil
}

// Subscribe registers a new subscriber channel for the topic.
func (b *ChannelMessageBroker) Subscribe(ctx context.Context, topic string) (<-chan domain.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("message broker is closed")
	}

	ch := make(chan domain.Message, subscriberBuffer)
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	log.WithCtx(ctx).Info("subscribed to topic", zap.String("topic", topic))
	return ch, nil
}

// Close closes the broker and all subscriber channels.
func (b *ChannelMessageBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	b.subscribers = make(map[string][]chan domain.Message)
	return nil
}

// SubscriberCount reports the number of subscribers on a topic.
func (b *ChannelMessageBroker) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}
