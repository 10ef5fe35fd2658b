package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the PostgreSQL-backed conversation store.
// Safe for concurrent use by multiple goroutines.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres creates a Postgres conversation store.
// logger may be nil, in which case slog.Default() is used.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{pool: pool, logger: logger}
}

// GetOrCreate returns the user's conversation, creating one when the id
// is nil or does not resolve for that user.
func (s *Postgres) GetOrCreate(ctx context.Context, userID, conversationID uuid.UUID) (*Conversation, error) {
	if conversationID != uuid.Nil {
		var c Conversation
		err := s.pool.QueryRow(ctx,
			`SELECT id, user_id, created_at, updated_at
			 FROM conversations WHERE id = $1 AND user_id = $2`,
			conversationID, userID).
			Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
		if err == nil {
			return &c, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("getting conversation %s: %w", conversationID, err)
		}
		// Unknown or foreign id: fall through and create a fresh one.
	}

	var c Conversation
	err := s.pool.QueryRow(ctx,
		`INSERT INTO conversations (user_id) VALUES ($1)
		 RETURNING id, user_id, created_at, updated_at`, userID).
		Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	s.logger.Debug("created conversation", "id", c.ID, "user", userID)
	return &c, nil
}

// Get returns the user's conversation or ErrNotFound.
func (s *Postgres) Get(ctx context.Context, userID, conversationID uuid.UUID) (*Conversation, error) {
	var c Conversation
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, created_at, updated_at
		 FROM conversations WHERE id = $1 AND user_id = $2`,
		conversationID, userID).
		Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting conversation %s: %w", conversationID, err)
	}
	return &c, nil
}

// AppendPair atomically appends a user message and its assistant reply.
// The conversation row is locked for the duration of the transaction so
// concurrent appends to the same conversation serialize and sequence
// numbers never interleave.
func (s *Postgres) AppendPair(ctx context.Context, conversationID uuid.UUID, userText, assistantText string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning append transaction: %w", err)
	}
	defer func() {
		// Rollback after commit is a no-op.
		_ = tx.Rollback(ctx)
	}()

	var locked uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM conversations WHERE id = $1 FOR UPDATE`, conversationID).
		Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("locking conversation %s: %w", conversationID, err)
	}

	var maxSeq int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0)
		 FROM conversation_messages WHERE conversation_id = $1`, conversationID).
		Scan(&maxSeq)
	if err != nil {
		return fmt.Errorf("reading max sequence number: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(
		`INSERT INTO conversation_messages (conversation_id, role, content, sequence_number)
		 VALUES ($1, $2, $3, $4)`,
		conversationID, RoleUser, userText, maxSeq+1)
	batch.Queue(
		`INSERT INTO conversation_messages (conversation_id, role, content, sequence_number)
		 VALUES ($1, $2, $3, $4)`,
		conversationID, RoleAssistant, assistantText, maxSeq+2)
	batch.Queue(
		`UPDATE conversations SET updated_at = now() WHERE id = $1`, conversationID)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("appending message pair: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing message pair: %w", err)
	}
	return nil
}

// History returns messages oldest to newest, optionally bounded to the
// most recent limit messages.
func (s *Postgres) History(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error) {
	query := `SELECT id, conversation_id, role, content, sequence_number, created_at
	          FROM conversation_messages WHERE conversation_id = $1
	          ORDER BY sequence_number`
	args := []any{conversationID}

	if limit > 0 {
		// Most recent N, still returned oldest to newest.
		query = `SELECT id, conversation_id, role, content, sequence_number, created_at
		         FROM (
		             SELECT id, conversation_id, role, content, sequence_number, created_at
		             FROM conversation_messages WHERE conversation_id = $1
		             ORDER BY sequence_number DESC LIMIT $2
		         ) recent
		         ORDER BY sequence_number`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.SequenceNumber, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}
	return messages, nil
}
