// Package tool is the single gateway through which the assistant reads
// or mutates task data.
//
// No other component of the conversational core holds a task store
// handle; the chat orchestrator can only reach tasks through
// Dispatcher. This makes the single-gateway rule a structural property
// rather than a runtime check.
package tool

import (
	"github.com/google/uuid"

	"github.com/taskpilot/taskpilot/internal/task"
)

// Gateway operation names, used in results and logs.
const (
	ToolAddTask      = "add_task"
	ToolListTasks    = "list_tasks"
	ToolUpdateTask   = "update_task"
	ToolCompleteTask = "complete_task"
	ToolDeleteTask   = "delete_task"
)

// Status is the outcome class of a dispatch.
type Status string

// Dispatch outcomes. A dispatch always returns one of these; the
// dispatcher never propagates a raw error or panic to its caller.
const (
	// StatusOK means the operation succeeded.
	StatusOK Status = "ok"

	// StatusClarificationNeeded means a required parameter is missing
	// or a task reference did not resolve; MissingField names it.
	StatusClarificationNeeded Status = "clarification_needed"

	// StatusAuthorizationDenied means the referenced task belongs to a
	// different user. No mutation was performed.
	StatusAuthorizationDenied Status = "authorization_denied"

	// StatusFailure means the underlying store failed.
	StatusFailure Status = "tool_failure"

	// StatusTimeout means the operation exceeded the dispatch deadline.
	StatusTimeout Status = "tool_timeout"
)

// Result is the structured outcome of one gateway call.
type Result struct {
	Tool   string
	Status Status

	// MissingField names the absent parameter when Status is
	// StatusClarificationNeeded ("title", "task").
	MissingField string

	// Task is set on successful add/update/complete.
	Task *task.Task

	// Tasks and Count are set on successful list.
	Tasks []*task.Task
	Count int

	// DeletedTaskID is set on successful delete.
	DeletedTaskID uuid.UUID

	// Err preserves the underlying error for diagnostics. It is logged,
	// never surfaced to the user.
	Err error
}

// OK reports whether the dispatch succeeded.
func (r Result) OK() bool {
	return r.Status == StatusOK
}
