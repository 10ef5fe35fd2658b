// Package conversation manages conversation identity and ordered
// message history.
//
// A conversation belongs to exactly one user and is created lazily on
// first reference. Within a conversation, messages are strictly ordered
// by sequence number and every user message is immediately followed by
// its paired assistant message; AppendPair writes both in one
// transaction so the pairing invariant holds even under failure.
package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNotFound indicates the conversation does not exist for the user.
var ErrNotFound = errors.New("conversation not found")

// Conversation is an ordered, user-owned sequence of messages.
type Conversation struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is a single turn entry in a conversation.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Role           string // RoleUser or RoleAssistant
	Content        string
	SequenceNumber int
	CreatedAt      time.Time
}

// Store is the conversation persistence contract. Implemented by
// Postgres for production and Memory for tests.
type Store interface {
	// GetOrCreate returns the user's conversation with the given id, or
	// a fresh one when id is uuid.Nil or does not resolve for that
	// user. A conversation id belonging to another user never resolves.
	GetOrCreate(ctx context.Context, userID, conversationID uuid.UUID) (*Conversation, error)

	// Get returns the user's conversation or ErrNotFound. Unlike
	// GetOrCreate it never creates, so read-only surfaces can use it.
	Get(ctx context.Context, userID, conversationID uuid.UUID) (*Conversation, error)

	// AppendPair atomically appends a user message and its assistant
	// reply. Concurrent appends to the same conversation are
	// serialized so sequence numbers never interleave.
	AppendPair(ctx context.Context, conversationID uuid.UUID, userText, assistantText string) error

	// History returns messages oldest to newest. limit > 0 bounds the
	// result to the most recent limit messages.
	History(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error)
}
