package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/pauline-si/ai-eng-tech-eval/domain"
	"github.com/pauline-si/ai-eng-tech-eval/usecase"
	"github.com/pauline-si/ai-eng-tech-eval/utils/log"
)

const (
	sessionTokenExpiry = 24 * time.Hour
	maxAudioUpload     = 10 * 1024 * 1024
	maxConcurrentAudio = 10
)

// ChatHandler exposes the conversation loop and the speech services
// over HTTP.
type ChatHandler struct {
	chat          *usecase.ChatService
	synthesizer   domain.Synthesizer
	transcriber   domain.Transcriber
	messageBroker domain.MessageBroker
	sessionSecret []byte
}

func NewChatHandler(
	chat *usecase.ChatService,
	synthesizer domain.Synthesizer,
	transcriber domain.Transcriber,
	messageBroker domain.MessageBroker,
	sessionSecret string,
) *ChatHandler {
	return &ChatHandler{
		chat:          chat,
		synthesizer:   synthesizer,
		transcriber:   transcriber,
		messageBroker: messageBroker,
		sessionSecret: []byte(sessionSecret),
	}
}

type ChatRequest struct {
	Message  string            `json:"message"`
	TodoList []domain.TodoItem `json:"todo_list"`
}

type ChatResponse struct {
	Response        string            `json:"response"`
	UpdatedTodoList []domain.TodoItem `json:"updated_todo_list"`
	Error           string            `json:"error,omitempty"`
}

type TTSRequest struct {
	Text string `json:"text"`
}

type STTResponse struct {
	Text string `json:"text"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	Type      string `json:"type"`
}

type sessionClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// CreateSession registers a fresh session and returns a signed token
// carrying its ID. The token is session identity supplied by the
// transport layer, not user authentication.
func (h *ChatHandler) CreateSession(c echo.Context) error {
	sess := h.chat.Sessions().Create()

	claims := &sessionClaims{
		SessionID: sess.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "chat-assistant",
			Subject:   sess.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.sessionSecret)
	if err != nil {
		log.WithCtx(c.Request().Context()).Error("signing session token", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}

	return c.JSON(http.StatusOK, SessionResponse{
		SessionID: sess.ID,
		Token:     signed,
		Type:      "Bearer",
	})
}

// SessionMiddleware resolves the caller's session from a bearer token
// (header or, for websocket upgrades, ?token=) or an X-Session-ID
// header. Callers without either get a fresh session, echoed back via
// the X-Session-ID response header.
func (h *ChatHandler) SessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionID, err := h.resolveSessionID(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		if sessionID == "" {
			sessionID = h.chat.Sessions().Create().ID
		}
		c.Set("session_id", sessionID)
		c.Response().Header().Set("X-Session-ID", sessionID)
		return next(c)
	}
}

// RequireSession is SessionMiddleware without the fresh-session
// fallback; used where an existing session is mandatory.
func (h *ChatHandler) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionID, err := h.resolveSessionID(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		if sessionID == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing session token")
		}
		c.Set("session_id", sessionID)
		return next(c)
	}
}

func (h *ChatHandler) resolveSessionID(c echo.Context) (string, error) {
	tokenString := ""
	if auth := c.Request().Header.Get("Authorization"); auth != "" {
		tokenString = strings.TrimPrefix(auth, "Bearer ")
		if tokenString == auth {
			return "", fmt.Errorf("invalid authorization format")
		}
	} else if q := c.QueryParam("token"); q != "" {
		tokenString = q
	}

	if tokenString == "" {
		return c.Request().Header.Get("X-Session-ID"), nil
	}

	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return h.sessionSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid session token")
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", fmt.Errorf("invalid session token claims")
	}
	return claims.SessionID, nil
}

// Chat handles one conversational turn.
func (h *ChatHandler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message must not be empty")
	}

	sessionID := c.Get("session_id").(string)
	result, err := h.chat.HandleTurn(c.Request().Context(), sessionID, req.Message, req.TodoList)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionBusy):
			return echo.NewHTTPError(http.StatusConflict, "A turn is already in flight for this session")
		case errors.Is(err, domain.ErrUpstreamTimeout), errors.Is(err, domain.ErrUpstreamUnavailable):
			// The turn failed but the session survives; tell the user
			// in plain language, the way any other assistant reply
			// would arrive.
			return c.JSON(http.StatusOK, ChatResponse{
				Response:        "Seems like I have encountered an error reaching my upstream services. Please try again in a moment.",
				UpdatedTodoList: req.TodoList,
				Error:           err.Error(),
			})
		default:
			log.WithCtx(c.Request().Context()).Error("turn failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process message")
		}
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Response:        result.Response,
		UpdatedTodoList: result.TodoList,
	})
}

// Audio synthesizes speech for a piece of assistant text.
func (h *ChatHandler) Audio(c echo.Context) error {
	var req TTSRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Text must not be empty")
	}

	audio, err := h.synthesizer.Synthesize(c.Request().Context(), req.Text)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamTimeout) {
			return echo.NewHTTPError(http.StatusGatewayTimeout, "Speech synthesis timed out")
		}
		log.WithCtx(c.Request().Context()).Error("synthesis failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "Speech synthesis failed")
	}

	c.Response().Header().Set("Content-Disposition", "inline; filename=speech.mp3")
	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}

// Transcribe turns an uploaded audio file into text and publishes the
// result for connected websocket clients of the same session.
func (h *ChatHandler) Transcribe(c echo.Context) error {
	file, err := c.FormFile("audio")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing audio file")
	}
	if file.Size > maxAudioUpload {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Audio file too large")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable audio file")
	}
	defer src.Close()

	audio, err := io.ReadAll(io.LimitReader(src, maxAudioUpload))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable audio file")
	}

	ctx := c.Request().Context()
	text, err := h.transcriber.Transcribe(ctx, audio)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamTimeout) {
			return echo.NewHTTPError(http.StatusGatewayTimeout, "Transcription timed out")
		}
		log.WithCtx(ctx).Error("transcription failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("Transcription failed: %v", err))
	}

	if sessionID, ok := c.Get("session_id").(string); ok && sessionID != "" && h.messageBroker != nil {
		h.publishTranscription(c, sessionID, text)
	}

	return c.JSON(http.StatusOK, STTResponse{Text: text})
}

func (h *ChatHandler) publishTranscription(c echo.Context, sessionID, text string) {
	ctx := c.Request().Context()
	payload, err := json.Marshal(domain.TranscriptionEvent{
		SessionID: sessionID,
		Text:      text,
		Timestamp: time.Now(),
		Success:   true,
	})
	if err != nil {
		log.WithCtx(ctx).Error("marshaling transcription event", zap.Error(err))
		return
	}
	if err := h.messageBroker.Publish(ctx, domain.TranscriptionTopic, sessionID, payload); err != nil {
		log.WithCtx(ctx).Error("publishing transcription event", zap.Error(err))
	}
}

// RateLimitMiddleware caps concurrent audio requests.
func (h *ChatHandler) RateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	semaphore := make(chan struct{}, maxConcurrentAudio)
	return func(c echo.Context) error {
		select {
		case semaphore <- struct{}{}:
			defer func() { <-semaphore }()
			return next(c)
		default:
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many concurrent requests")
		}
	}
}

// HealthCheck reports liveness.
func (h *ChatHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "chat-assistant",
	})
}
