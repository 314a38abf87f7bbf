package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pauline-si/ai-eng-tech-eval/utils/log"
)

// Client is one connected browser, bound to a single session.
type Client struct {
	conn         *websocket.Conn
	sessionID    string
	send         chan []byte
	incomingPing chan string
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
	closed       bool
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
)

// NewClient creates a new WebSocket client for a session.
func NewClient(conn *websocket.Conn, sessionID string) *Client {
	ctx := context.WithValue(context.Background(), "session_id", sessionID)
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		conn:         conn,
		sessionID:    sessionID,
		send:         make(chan []byte, 256),
		incomingPing: make(chan string, 1),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// SessionID returns the session this client is bound to.
func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) Run() {
	c.setupHandlers()

	go c.ping()
	go c.readPump()
	go c.writePump()
}

func (c *Client) setupHandlers() {
	c.conn.SetCloseHandler(func(code int, text string) error {
		log.WithCtx(c.ctx).Debug("WebSocket connection closed", zap.Int("code", code), zap.String("text", text))
		c.Close()
		return nil
	})

	c.conn.SetPingHandler(func(appData string) error {
		select {
		case c.incomingPing <- appData:
		default:
		}
		return c.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
}

// Close gracefully closes the client connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	close(c.send)
}

// IsClosed returns true if the client connection is closed.
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Context returns the client's context.
func (c *Client) Context() context.Context {
	return c.ctx
}

func (c *Client) ping() {
	for {
		select {
		case <-c.incomingPing:
		case <-time.After(pingPeriod):
			if c.IsClosed() {
				return
			}
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				log.WithCtx(c.ctx).Error("Failed to send ping", zap.Error(err))
				c.Close()
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// readPump drains incoming frames; clients only listen on this
// channel, so inbound payloads are logged and dropped.
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		if c.IsClosed() {
			return
		}
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithCtx(c.ctx).Error("WebSocket error", zap.Error(err))
			}
			return
		}
		log.WithCtx(c.ctx).Debug("Ignoring inbound message", zap.ByteString("message", message))
	}
}

func (c *Client) writePump() {
	defer c.Close()

	for {
		select {
		case message, ok := <-c.send:
			if c.IsClosed() {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithCtx(c.ctx).Error("Failed to write message", zap.Error(err))
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// SendMessage sends a message to the client safely.
func (c *Client) SendMessage(message []byte) error {
	if c.IsClosed() {
		return websocket.ErrCloseSent
	}

	select {
	case c.send <- message:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		// Backpressure: a client that cannot drain its buffer is cut.
		c.Close()
		return websocket.ErrCloseSent
	}
}
