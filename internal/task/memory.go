package task

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory task store used by tests and local development.
// Safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*Task
}

// NewMemory creates an empty in-memory task store.
func NewMemory() *Memory {
	return &Memory{tasks: make(map[uuid.UUID]*Task)}
}

// clone returns a copy so callers cannot mutate stored state.
func clone(t *Task) *Task {
	c := *t
	return &c
}

// Create inserts a new pending task for userID.
func (s *Memory) Create(_ context.Context, userID uuid.UUID, title, description string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	t := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks[t.ID] = t
	return clone(t), nil
}

// Get returns a task by id, enforcing ownership.
func (s *Memory) Get(_ context.Context, userID, taskID uuid.UUID) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locked(userID, taskID)
}

// locked looks up and ownership-checks a task. Caller holds the lock.
func (s *Memory) locked(userID, taskID uuid.UUID) (*Task, error) {
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, ErrNotFound
	}
	if t.UserID != userID {
		return nil, ErrForbidden
	}
	return clone(t), nil
}

// List returns all tasks for userID ordered by creation time.
func (s *Memory) List(_ context.Context, userID uuid.UUID) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*Task
	for _, t := range s.tasks {
		if t.UserID == userID {
			tasks = append(tasks, clone(t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// Update applies the non-nil fields of upd to a task the user owns.
func (s *Memory) Update(_ context.Context, userID, taskID uuid.UUID, upd Update) (*Task, error) {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return nil, ErrTitleRequired
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, fmt.Errorf("invalid status %q", *upd.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.locked(userID, taskID); err != nil {
		return nil, err
	}

	t := s.tasks[taskID]
	if upd.Title != nil {
		t.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	t.UpdatedAt = time.Now()
	return clone(t), nil
}

// Complete marks a task the user owns as completed.
func (s *Memory) Complete(ctx context.Context, userID, taskID uuid.UUID) (*Task, error) {
	status := StatusCompleted
	return s.Update(ctx, userID, taskID, Update{Status: &status})
}

// Delete removes a task the user owns.
func (s *Memory) Delete(_ context.Context, userID, taskID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.locked(userID, taskID); err != nil {
		return err
	}
	delete(s.tasks, taskID)
	return nil
}
