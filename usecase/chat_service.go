package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pauline-si/ai-eng-tech-eval/domain"
	"github.com/pauline-si/ai-eng-tech-eval/utils/log"
)

// TurnState is the terminal state of one handled turn.
type TurnState string

const (
	TurnDone             TurnState = "done"
	TurnLoopLimitReached TurnState = "loop_limit_reached"
)

// TurnResult is what a completed turn hands back to the transport.
type TurnResult struct {
	Response string
	TodoList []domain.TodoItem
	State    TurnState
}

// Options tune the conversation loop. Zero values fall back to
// defaults.
type Options struct {
	ToolDepthLimit  int
	HistoryLimit    int
	UpstreamTimeout time.Duration
}

const (
	defaultToolDepthLimit  = 5
	defaultHistoryLimit    = 40
	defaultUpstreamTimeout = 30 * time.Second
)

// ChatService runs the conversation loop: it owns the session memory,
// augments the user turn, calls the model, dispatches requested tool
// calls through the registry and produces the final reply plus the
// updated to-do snapshot.
type ChatService struct {
	llm      domain.Llm
	catalog  domain.Catalog
	broker   domain.MessageBroker
	registry *Registry
	sessions *SessionManager
	opts     Options
}

// NewChatService wires the loop and validates the tool registry once
// at startup. The broker is optional; without one, turn events are
// simply not published.
func NewChatService(llm domain.Llm, catalog domain.Catalog, broker domain.MessageBroker, opts Options) (*ChatService, error) {
	if opts.ToolDepthLimit <= 0 {
		opts.ToolDepthLimit = defaultToolDepthLimit
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if opts.UpstreamTimeout <= 0 {
		opts.UpstreamTimeout = defaultUpstreamTimeout
	}

	registry, err := NewRegistry(builtinTools())
	if err != nil {
		return nil, fmt.Errorf("building tool registry: %w", err)
	}

	return &ChatService{
		llm:      llm,
		catalog:  catalog,
		broker:   broker,
		registry: registry,
		sessions: NewSessionManager(),
		opts:     opts,
	}, nil
}

// Sessions exposes the session manager to the transport layer.
func (s *ChatService) Sessions() *SessionManager {
	return s.sessions
}

// HandleTurn processes one user message for one session. Independent
// sessions run concurrently; a second turn for the same session while
// one is in flight is rejected with ErrSessionBusy.
func (s *ChatService) HandleTurn(ctx context.Context, sessionID string, message string, snapshot []domain.TodoItem) (TurnResult, error) {
	sess := s.sessions.GetOrCreate(sessionID)
	if !sess.tryAcquire() {
		return TurnResult{}, fmt.Errorf("%w: %s", domain.ErrSessionBusy, sessionID)
	}
	defer sess.release()

	logger := log.With(zap.String("session_id", sessionID))

	turn := &Turn{
		SessionID: sessionID,
		Todos:     domain.MergeTodoLists(sess.todosCopy(), snapshot),
		catalog:   s.catalog,
	}

	sess.appendMessage(domain.ChatMessage{
		Role:    domain.UserRole,
		Content: BuildPrompt(message, turn.Todos, sess.factsCopy()),
	})

	for depth := 0; ; depth++ {
		completion, err := s.complete(ctx, sess.historyCopy())
		if err != nil {
			// The turn fails but the session survives.
			sess.truncate(s.opts.HistoryLimit)
			logger.Error("model call failed", zap.Error(err))
			return TurnResult{}, err
		}

		if len(completion.ToolCalls) == 0 {
			sess.appendMessage(domain.ChatMessage{
				Role:    domain.AssistantRole,
				Content: completion.Text,
			})
			s.commit(sess, turn)
			s.publishTurn(ctx, sessionID, completion.Text, turn.Todos)
			return TurnResult{Response: completion.Text, TodoList: turn.Todos, State: TurnDone}, nil
		}

		if depth >= s.opts.ToolDepthLimit {
			reply := "I had to stop because too many tool calls were chained in a single turn. Here is where things stand; please tell me how to continue."
			logger.Warn("recovering from tool loop",
				zap.Int("depth", depth),
				zap.Error(fmt.Errorf("%w: depth %d", domain.ErrToolLoopExceeded, depth)))
			sess.appendMessage(domain.ChatMessage{
				Role:    domain.AssistantRole,
				Content: reply,
			})
			s.commit(sess, turn)
			s.publishTurn(ctx, sessionID, reply, turn.Todos)
			return TurnResult{Response: reply, TodoList: turn.Todos, State: TurnLoopLimitReached}, nil
		}

		sess.appendMessage(domain.ChatMessage{
			Role:      domain.AssistantRole,
			ToolCalls: completion.ToolCalls,
		})
		for _, call := range completion.ToolCalls {
			result := s.dispatch(ctx, turn, call)
			logger.Info("tool executed",
				zap.String("tool", call.Name),
				zap.Bool("success", result.Success))
			sess.appendMessage(domain.ChatMessage{
				Role:       domain.ToolRole,
				ToolResult: &result,
			})
		}
	}
}

// complete calls the model with a bounded timeout and normalizes
// failures into the error taxonomy.
func (s *ChatService) complete(ctx context.Context, history []domain.ChatMessage) (domain.Completion, error) {
	tctx, cancel := context.WithTimeout(ctx, s.opts.UpstreamTimeout)
	defer cancel()

	completion, err := s.llm.Complete(tctx, history, s.registry.Schemas())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUpstreamTimeout), errors.Is(err, domain.ErrUpstreamUnavailable):
			return domain.Completion{}, err
		case errors.Is(err, context.DeadlineExceeded):
			return domain.Completion{}, fmt.Errorf("%w: model: %v", domain.ErrUpstreamTimeout, err)
		default:
			return domain.Completion{}, fmt.Errorf("%w: model: %v", domain.ErrUpstreamUnavailable, err)
		}
	}
	return completion, nil
}

// dispatch resolves, validates and executes one tool call. Executors
// never leak errors past this point: every failure becomes a
// ToolResult the model can verbalize.
func (s *ChatService) dispatch(ctx context.Context, turn *Turn, call domain.ToolCallRequest) domain.ToolResult {
	tool, err := s.registry.Resolve(call.Name)
	if err != nil {
		return failedResult(call, err)
	}
	if err := ValidateArgs(tool.Schema, call.Args); err != nil {
		return failedResult(call, err)
	}

	tctx, cancel := context.WithTimeout(ctx, s.opts.UpstreamTimeout)
	defer cancel()

	payload, err := tool.Run(tctx, turn, call.Args)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %s: %v", domain.ErrUpstreamTimeout, call.Name, err)
		}
		return failedResult(call, err)
	}
	return domain.ToolResult{
		ID:      call.ID,
		Name:    call.Name,
		Success: true,
		Payload: payload,
	}
}

func failedResult(call domain.ToolCallRequest, err error) domain.ToolResult {
	return domain.ToolResult{
		ID:      call.ID,
		Name:    call.Name,
		Success: false,
		Reason:  err.Error(),
	}
}

// commit writes the turn's outcome back into the session memory and
// applies the history cap.
func (s *ChatService) commit(sess *Session, turn *Turn) {
	sess.setTodos(turn.Todos)
	for key, fact := range turn.facts {
		sess.setFact(key, fact)
	}
	sess.truncate(s.opts.HistoryLimit)
}

func (s *ChatService) publishTurn(ctx context.Context, sessionID, response string, todos []domain.TodoItem) {
	if s.broker == nil {
		return
	}
	payload, err := json.Marshal(domain.TurnEvent{
		SessionID: sessionID,
		Response:  response,
		TodoList:  todos,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.WithCtx(ctx).Error("marshaling turn event", zap.Error(err))
		return
	}
	if err := s.broker.Publish(ctx, domain.TurnTopic, sessionID, payload); err != nil {
		log.WithCtx(ctx).Error("publishing turn event", zap.Error(err))
	}
}
