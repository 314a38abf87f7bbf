package message_broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pauline-si/ai-eng-tech-eval/domain"
)

func TestPublishReachesEverySubscriber(t *testing.T) {
	broker := NewChannelMessageBroker()
	defer broker.Close()

	ctx := context.Background()
	first, err := broker.Subscribe(ctx, domain.TurnTopic)
	require.NoError(t, err)
	second, err := broker.Subscribe(ctx, domain.TurnTopic)
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, domain.TurnTopic, "sess-1", []byte("hello")))

	for _, ch := range []<-chan domain.Message{first, second} {
		select {
		case msg := <-ch:
			assert.Equal(t, domain.TurnTopic, msg.Topic)
			assert.Equal(t, "sess-1", msg.RoutingKey)
			assert.Equal(t, []byte("hello"), msg.Payload)
		case <-time.After(time.Second):
			t.Fatal("subscriber never received the message")
		}
	}
}

func TestPublishIgnoresOtherTopics(t *testing.T) {
	broker := NewChannelMessageBroker()
	defer broker.Close()

	ctx := context.Background()
	transcriptions, err := broker.Subscribe(ctx, domain.TranscriptionTopic)
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, domain.TurnTopic, "sess-1", []byte("turn")))

	select {
	case msg := <-transcriptions:
		t.Fatalf("unexpected message on transcription topic: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCloseShutsDownSubscribers(t *testing.T) {
	broker := NewChannelMessageBroker()

	ch, err := broker.Subscribe(context.Background(), domain.TurnTopic)
	require.NoError(t, err)

	require.NoError(t, broker.Close())

	_, open := <-ch
	assert.False(t, open)

	err = broker.Publish(context.Background(), domain.TurnTopic, "sess-1", []byte("late"))
	assert.Error(t, err)

	// Closing twice is fine.
	assert.NoError(t, broker.Close())
}

func TestSubscriberCount(t *testing.T) {
	broker := NewChannelMessageBroker()
	defer broker.Close()

	assert.Equal(t, 0, broker.SubscriberCount(domain.TurnTopic))
	_, err := broker.Subscribe(context.Background(), domain.TurnTopic)
	require.NoError(t, err)
	assert.Equal(t, 1, broker.SubscriberCount(domain.TurnTopic))
}
