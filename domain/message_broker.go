package domain

import (
	"context"
	"time"
)

// MessageBroker decouples the conversation loop from push transports.
// Subscribers receive every message on a topic and filter by routing
// key themselves.
type MessageBroker interface {
	// Publish sends a message to a topic with a routing key.
	Publish(ctx context.Context, topic string, routingKey string, message []byte) error

	// Subscribe listens for all messages on a topic.
	Subscribe(ctx context.Context, topic string) (<-chan Message, error)

	// Close closes the message broker.
	Close() error
}

// Message is one message received from the broker.
type Message struct {
	Topic      string
	RoutingKey string
	Payload    []byte
	Timestamp  time.Time
}

// Broker topics used by the service.
const (
	TurnTopic          = "chat.turns"
	TranscriptionTopic = "transcription.results"
)

// TurnEvent is published after each completed turn so connected
// clients can refresh their to-do list without polling.
type TurnEvent struct {
	SessionID string     `json:"session_id"`
	Response  string     `json:"response"`
	TodoList  []TodoItem `json:"todo_list"`
	Timestamp time.Time  `json:"timestamp"`
}

// TranscriptionEvent is published when an audio upload has been
// transcribed.
type TranscriptionEvent struct {
	SessionID string    `json:"session_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}
