// Package chat orchestrates one assistant turn: classify the inbound
// message, dispatch a tool call when the user asked for a task
// operation, render the reply, and persist the exchange.
//
// The service holds no cross-turn state of its own; conversation
// continuity lives entirely in the injected conversation store. Tasks
// are reachable only through the tool dispatcher, never directly.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskpilot/taskpilot/internal/conversation"
	"github.com/taskpilot/taskpilot/internal/intent"
	"github.com/taskpilot/taskpilot/internal/reply"
	"github.com/taskpilot/taskpilot/internal/tool"
)

// persistRetries is how often reply persistence is retried before the
// error surfaces to the caller. The user message and the reply are
// written as one pair, so a failed attempt leaves nothing half-applied.
const persistRetries = 3

// persistRetryInterval is the pause between persistence attempts.
const persistRetryInterval = 200 * time.Millisecond

// ErrEmptyUser indicates Send was called without an authenticated user.
var ErrEmptyUser = errors.New("user id required")

// Response is the outcome of one chat turn.
type Response struct {
	ConversationID uuid.UUID
	Reply          string
}

// Config contains the required dependencies for the chat service.
type Config struct {
	Conversations conversation.Store
	Dispatcher    *tool.Dispatcher
	Logger        *slog.Logger

	// HistoryLimit bounds the context window passed to History calls.
	// 0 uses DefaultHistoryLimit.
	HistoryLimit int
}

// DefaultHistoryLimit is the fallback context window size.
const DefaultHistoryLimit = 50

// Service processes chat turns. Safe for concurrent use; turns within
// one conversation are serialized, distinct conversations run in
// parallel.
type Service struct {
	conversations conversation.Store
	dispatcher    *tool.Dispatcher
	logger        *slog.Logger
	historyLimit  int
	locks         *convLocks
}

// New creates a chat service.
func New(cfg Config) (*Service, error) {
	if cfg.Conversations == nil {
		return nil, errors.New("conversation store is required")
	}
	if cfg.Dispatcher == nil {
		return nil, errors.New("tool dispatcher is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	return &Service{
		conversations: cfg.Conversations,
		dispatcher:    cfg.Dispatcher,
		logger:        logger,
		historyLimit:  limit,
		locks:         newConvLocks(),
	}, nil
}

// Send processes one inbound message and returns the assistant's reply.
//
// conversationID may be uuid.Nil or stale; the turn then starts a fresh
// conversation for the user. Any fault inside classification, dispatch
// or generation is converted to a safe failure reply rather than
// propagated; only persistence failures surface as errors.
func (s *Service) Send(ctx context.Context, userID, conversationID uuid.UUID, text string) (Response, error) {
	if userID == uuid.Nil {
		return Response{}, ErrEmptyUser
	}

	conv, err := s.conversations.GetOrCreate(ctx, userID, conversationID)
	if err != nil {
		return Response{}, fmt.Errorf("resolving conversation: %w", err)
	}

	// One turn at a time per conversation: a second message cannot be
	// classified, dispatched or persisted out of order relative to the
	// first, and never sees a half-written history.
	release := s.locks.acquire(conv.ID)
	defer release()

	replyText := s.respond(ctx, userID, text)

	if err := s.persistPair(ctx, conv.ID, text, replyText); err != nil {
		return Response{}, fmt.Errorf("persisting turn: %w", err)
	}

	return Response{ConversationID: conv.ID, Reply: replyText}, nil
}

// respond runs classify, optional dispatch and generate. It never
// panics and never returns an error: unexpected faults become a failure
// reply, with the detail kept in the logs.
func (s *Service) respond(ctx context.Context, userID uuid.UUID, text string) (replyText string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic during chat turn", "user", userID, "panic", r)
			failed := tool.Result{Status: tool.StatusFailure, Err: fmt.Errorf("panic: %v", r)}
			replyText = reply.Generate(intent.Intent{Label: intent.LabelTaskQuery}, &failed)
		}
	}()

	in := intent.Classify(text)

	var result *tool.Result
	if in.IsTaskQuery() {
		// The dispatch must run to completion even if the caller
		// disconnects mid-turn; the dispatcher applies its own bounded
		// timeout.
		res := s.dispatcher.Dispatch(context.WithoutCancel(ctx), userID, in)
		result = &res
	}

	s.logger.Debug("chat turn classified",
		"user", userID, "label", in.Label, "action", in.Action)

	return reply.Generate(in, result)
}

// persistPair appends the user/assistant pair, retrying so a transient
// store error does not leave the user's message unanswered.
func (s *Service) persistPair(ctx context.Context, conversationID uuid.UUID, userText, replyText string) error {
	// Detached from caller cancellation: once the reply exists the pair
	// should be recorded even if the client went away.
	ctx = context.WithoutCancel(ctx)

	var err error
	for attempt := 1; attempt <= persistRetries; attempt++ {
		err = s.conversations.AppendPair(ctx, conversationID, userText, replyText)
		if err == nil {
			return nil
		}
		s.logger.Warn("appending message pair failed",
			"conversation", conversationID, "attempt", attempt, "error", err)
		if attempt < persistRetries {
			time.Sleep(persistRetryInterval)
		}
	}
	return err
}

// History returns the conversation's messages oldest to newest, bounded
// by the configured context window. The conversation must belong to
// userID.
func (s *Service) History(ctx context.Context, userID, conversationID uuid.UUID) ([]conversation.Message, error) {
	if _, err := s.conversations.Get(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.conversations.History(ctx, conversationID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return msgs, nil
}
