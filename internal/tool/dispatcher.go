package tool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskpilot/taskpilot/internal/intent"
	"github.com/taskpilot/taskpilot/internal/task"
)

// DefaultTimeout bounds a single dispatch when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Dispatcher validates, authorizes and executes the five gateway
// operations. It is stateless and safe for concurrent use.
type Dispatcher struct {
	store   task.Store
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Dispatcher over the given task store.
// timeout <= 0 falls back to DefaultTimeout. A nil logger uses
// slog.Default().
func New(store task.Store, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{store: store, timeout: timeout, logger: logger}
}

// Dispatch executes the task operation requested by in for userID and
// returns a definitive Result. It blocks until the operation finishes
// or the dispatch deadline expires; it never panics and never returns
// a raw store error.
func (d *Dispatcher) Dispatch(ctx context.Context, userID uuid.UUID, in intent.Intent) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic in tool dispatch", "tool", res.Tool, "panic", r)
			res = Result{Tool: res.Tool, Status: StatusFailure, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	switch in.Action {
	case intent.ActionAdd:
		res = d.addTask(ctx, userID, in.Title)
	case intent.ActionList:
		res = d.listTasks(ctx, userID)
	case intent.ActionUpdate:
		res = d.updateTask(ctx, userID, in.TaskRef, in.Title)
	case intent.ActionComplete:
		res = d.completeTask(ctx, userID, in.TaskRef)
	case intent.ActionDelete:
		res = d.deleteTask(ctx, userID, in.TaskRef)
	default:
		res = Result{Status: StatusFailure, Err: fmt.Errorf("unknown action %q", in.Action)}
	}

	if res.Status != StatusOK {
		d.logger.Info("tool dispatch did not succeed",
			"tool", res.Tool, "status", res.Status, "user", userID, "error", res.Err)
	} else {
		d.logger.Debug("tool dispatch ok", "tool", res.Tool, "user", userID)
	}
	return res
}

func (d *Dispatcher) addTask(ctx context.Context, userID uuid.UUID, title string) Result {
	if strings.TrimSpace(title) == "" {
		return Result{Tool: ToolAddTask, Status: StatusClarificationNeeded, MissingField: "title"}
	}

	t, err := d.store.Create(ctx, userID, title, "")
	if err != nil {
		return fail(ToolAddTask, err)
	}
	return Result{Tool: ToolAddTask, Status: StatusOK, Task: t}
}

func (d *Dispatcher) listTasks(ctx context.Context, userID uuid.UUID) Result {
	tasks, err := d.store.List(ctx, userID)
	if err != nil {
		return fail(ToolListTasks, err)
	}
	return Result{Tool: ToolListTasks, Status: StatusOK, Tasks: tasks, Count: len(tasks)}
}

func (d *Dispatcher) updateTask(ctx context.Context, userID uuid.UUID, ref, title string) Result {
	if strings.TrimSpace(title) == "" {
		return Result{Tool: ToolUpdateTask, Status: StatusClarificationNeeded, MissingField: "title"}
	}

	id, res, ok := d.resolveRef(ctx, ToolUpdateTask, userID, ref)
	if !ok {
		return res
	}

	t, err := d.store.Update(ctx, userID, id, task.Update{Title: &title})
	if err != nil {
		return fail(ToolUpdateTask, err)
	}
	return Result{Tool: ToolUpdateTask, Status: StatusOK, Task: t}
}

func (d *Dispatcher) completeTask(ctx context.Context, userID uuid.UUID, ref string) Result {
	id, res, ok := d.resolveRef(ctx, ToolCompleteTask, userID, ref)
	if !ok {
		return res
	}

	t, err := d.store.Complete(ctx, userID, id)
	if err != nil {
		return fail(ToolCompleteTask, err)
	}
	return Result{Tool: ToolCompleteTask, Status: StatusOK, Task: t}
}

func (d *Dispatcher) deleteTask(ctx context.Context, userID uuid.UUID, ref string) Result {
	id, res, ok := d.resolveRef(ctx, ToolDeleteTask, userID, ref)
	if !ok {
		return res
	}

	if err := d.store.Delete(ctx, userID, id); err != nil {
		return fail(ToolDeleteTask, err)
	}
	return Result{Tool: ToolDeleteTask, Status: StatusOK, DeletedTaskID: id}
}

// resolveRef turns a free-text task reference into a task id.
//
// Resolution order: a UUID is used directly (ownership is checked by the
// store on the actual operation), a bare number is a 1-based ordinal
// into the user's task list, anything else matches against task titles.
// An empty or unresolvable reference yields a clarification result, not
// an error.
func (d *Dispatcher) resolveRef(ctx context.Context, toolName string, userID uuid.UUID, ref string) (uuid.UUID, Result, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return uuid.Nil, Result{Tool: toolName, Status: StatusClarificationNeeded, MissingField: "task"}, false
	}

	if id, err := uuid.Parse(ref); err == nil {
		return id, Result{}, true
	}

	tasks, err := d.store.List(ctx, userID)
	if err != nil {
		return uuid.Nil, fail(toolName, err), false
	}

	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(tasks) {
			return uuid.Nil, Result{Tool: toolName, Status: StatusClarificationNeeded, MissingField: "task"}, false
		}
		return tasks[n-1].ID, Result{}, true
	}

	// Title match: a unique case-insensitive exact match wins, then a
	// unique substring match. Ambiguity asks for clarification.
	var matches []*task.Task
	for _, t := range tasks {
		if strings.EqualFold(t.Title, ref) {
			matches = append(matches, t)
		}
	}
	if len(matches) == 0 {
		lower := strings.ToLower(ref)
		for _, t := range tasks {
			if strings.Contains(strings.ToLower(t.Title), lower) {
				matches = append(matches, t)
			}
		}
	}
	if len(matches) != 1 {
		return uuid.Nil, Result{Tool: toolName, Status: StatusClarificationNeeded, MissingField: "task"}, false
	}
	return matches[0].ID, Result{}, true
}

// fail maps a store error to its result class.
func fail(toolName string, err error) Result {
	switch {
	case errors.Is(err, task.ErrForbidden):
		return Result{Tool: toolName, Status: StatusAuthorizationDenied, Err: err}
	case errors.Is(err, task.ErrNotFound):
		return Result{Tool: toolName, Status: StatusClarificationNeeded, MissingField: "task", Err: err}
	case errors.Is(err, task.ErrTitleRequired):
		return Result{Tool: toolName, Status: StatusClarificationNeeded, MissingField: "title", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return Result{Tool: toolName, Status: StatusTimeout, Err: err}
	default:
		return Result{Tool: toolName, Status: StatusFailure, Err: err}
	}
}
