// Package task provides the task domain model and its persistence.
//
// Every operation is scoped to an owning user. A task referenced by a
// user who does not own it yields ErrForbidden so callers can
// distinguish a cross-user access attempt from a missing task.
package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a task.
type Status string

// Valid task statuses.
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates the task does not exist.
	ErrNotFound = errors.New("task not found")

	// ErrForbidden indicates the task exists but belongs to another user.
	ErrForbidden = errors.New("task not owned by user")

	// ErrTitleRequired indicates a create or update without a usable title.
	ErrTitleRequired = errors.New("task title required")
)

// Task is a single todo item owned by one user.
type Task struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       string
	Description string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Update carries the optional fields of an update operation.
// Nil pointers leave the corresponding column untouched.
type Update struct {
	Title       *string
	Description *string
	Status      *Status
}

// Store is the task persistence contract. Implemented by Postgres for
// production and Memory for tests.
type Store interface {
	// Create inserts a new pending task for userID.
	Create(ctx context.Context, userID uuid.UUID, title, description string) (*Task, error)

	// Get returns a task by id. ErrForbidden if owned by another user.
	Get(ctx context.Context, userID, taskID uuid.UUID) (*Task, error)

	// List returns all tasks for userID ordered by creation time.
	List(ctx context.Context, userID uuid.UUID) ([]*Task, error)

	// Update applies the non-nil fields of upd to a task the user owns.
	Update(ctx context.Context, userID, taskID uuid.UUID, upd Update) (*Task, error)

	// Complete marks a task the user owns as completed.
	Complete(ctx context.Context, userID, taskID uuid.UUID) (*Task, error)

	// Delete removes a task the user owns.
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
}
