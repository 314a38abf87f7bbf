package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pauline-si/ai-eng-tech-eval/domain"
	"github.com/pauline-si/ai-eng-tech-eval/utils/log"
)

// Server upgrades connections and forwards broker events (completed
// turns, transcriptions) to the clients of the session they belong to.
type Server struct {
	upgrader websocket.Upgrader
	broker   domain.MessageBroker
	hub      *Hub
}

func NewServer(broker domain.MessageBroker) *Server {
	server := &Server{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		broker:   broker,
		hub:      NewHub(),
	}

	go server.forwardTopic(domain.TurnTopic, "turn")
	go server.forwardTopic(domain.TranscriptionTopic, "transcription")

	return server
}

func (s *Server) RunWebsocketHub() {
	s.hub.Run()
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// forwardTopic relays every broker message on topic to the clients of
// the session named by the routing key.
func (s *Server) forwardTopic(topic, eventType string) {
	ctx := context.Background()

	messages, err := s.broker.Subscribe(ctx, topic)
	if err != nil {
		log.WithCtx(ctx).Error("failed to subscribe to topic", zap.String("topic", topic), zap.Error(err))
		return
	}

	for msg := range messages {
		envelope, err := json.Marshal(map[string]any{
			"type":       eventType,
			"session_id": msg.RoutingKey,
			"payload":    json.RawMessage(msg.Payload),
			"timestamp":  msg.Timestamp.Format(time.RFC3339),
		})
		if err != nil {
			log.WithCtx(ctx).Error("failed to marshal event envelope", zap.Error(err))
			continue
		}

		s.hub.SendToSession(msg.RoutingKey, envelope)
		log.WithCtx(ctx).Debug("forwarded event to session clients",
			zap.String("topic", topic),
			zap.String("session_id", msg.RoutingKey))
	}
}
