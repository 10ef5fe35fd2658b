package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the PostgreSQL-backed task store.
// Safe for concurrent use by multiple goroutines.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres creates a Postgres task store.
// logger may be nil, in which case slog.Default() is used.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{pool: pool, logger: logger}
}

const taskColumns = "id, user_id, title, COALESCE(description, ''), status, created_at, updated_at"

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new pending task for userID.
func (s *Postgres) Create(ctx context.Context, userID uuid.UUID, title, description string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	var descPtr *string
	if description != "" {
		descPtr = &description
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (user_id, title, description)
		 VALUES ($1, $2, $3)
		 RETURNING `+taskColumns,
		userID, title, descPtr)

	t, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.logger.Debug("created task", "id", t.ID, "user", userID)
	return t, nil
}

// Get returns a task by id, enforcing ownership.
func (s *Postgres) Get(ctx context.Context, userID, taskID uuid.UUID) (*Task, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, taskID)

	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting task %s: %w", taskID, err)
	}
	if t.UserID != userID {
		return nil, ErrForbidden
	}
	return t, nil
}

// List returns all tasks for userID ordered by creation time.
func (s *Postgres) List(ctx context.Context, userID uuid.UUID) ([]*Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task rows: %w", err)
	}
	return tasks, nil
}

// Update applies the non-nil fields of upd to a task the user owns.
func (s *Postgres) Update(ctx context.Context, userID, taskID uuid.UUID, upd Update) (*Task, error) {
	if upd.Title != nil {
		trimmed := strings.TrimSpace(*upd.Title)
		if trimmed == "" {
			return nil, ErrTitleRequired
		}
		upd.Title = &trimmed
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, fmt.Errorf("invalid status %q", *upd.Status)
	}

	// Ownership check first so a cross-user id maps to ErrForbidden
	// instead of silently matching zero rows.
	if _, err := s.Get(ctx, userID, taskID); err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE tasks
		 SET title       = COALESCE($3, title),
		     description = COALESCE($4, description),
		     status      = COALESCE($5, status),
		     updated_at  = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+taskColumns,
		taskID, userID, upd.Title, upd.Description, upd.Status)

	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating task %s: %w", taskID, err)
	}
	return t, nil
}

// Complete marks a task the user owns as completed.
func (s *Postgres) Complete(ctx context.Context, userID, taskID uuid.UUID) (*Task, error) {
	status := StatusCompleted
	return s.Update(ctx, userID, taskID, Update{Status: &status})
}

// Delete removes a task the user owns.
func (s *Postgres) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	if _, err := s.Get(ctx, userID, taskID); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", taskID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted task", "id", taskID, "user", userID)
	return nil
}
