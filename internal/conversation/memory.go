package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory conversation store used by tests.
// Safe for concurrent use.
type Memory struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*Conversation
	messages      map[uuid.UUID][]Message
}

// NewMemory creates an empty in-memory conversation store.
func NewMemory() *Memory {
	return &Memory{
		conversations: make(map[uuid.UUID]*Conversation),
		messages:      make(map[uuid.UUID][]Message),
	}
}

// GetOrCreate returns the user's conversation, creating one when the id
// is nil or does not resolve for that user.
func (s *Memory) GetOrCreate(_ context.Context, userID, conversationID uuid.UUID) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conversationID != uuid.Nil {
		if c, ok := s.conversations[conversationID]; ok && c.UserID == userID {
			copied := *c
			return &copied, nil
		}
	}

	now := time.Now()
	c := &Conversation{ID: uuid.New(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	s.conversations[c.ID] = c
	copied := *c
	return &copied, nil
}

// Get returns the user's conversation or ErrNotFound.
func (s *Memory) Get(_ context.Context, userID, conversationID uuid.UUID) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok || c.UserID != userID {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

// AppendPair atomically appends a user message and its assistant reply.
func (s *Memory) AppendPair(_ context.Context, conversationID uuid.UUID, userText, assistantText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}

	seq := len(s.messages[conversationID])
	now := time.Now()
	s.messages[conversationID] = append(s.messages[conversationID],
		Message{
			ID:             uuid.New(),
			ConversationID: conversationID,
			Role:           RoleUser,
			Content:        userText,
			SequenceNumber: seq + 1,
			CreatedAt:      now,
		},
		Message{
			ID:             uuid.New(),
			ConversationID: conversationID,
			Role:           RoleAssistant,
			Content:        assistantText,
			SequenceNumber: seq + 2,
			CreatedAt:      now,
		},
	)
	c.UpdatedAt = now
	return nil
}

// History returns messages oldest to newest, optionally bounded to the
// most recent limit messages.
func (s *Memory) History(_ context.Context, conversationID uuid.UUID, limit int) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}
