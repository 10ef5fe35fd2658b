package reply

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/taskpilot/taskpilot/internal/intent"
	"github.com/taskpilot/taskpilot/internal/task"
	"github.com/taskpilot/taskpilot/internal/tool"
)

func taskNamed(title string, status task.Status) *task.Task {
	return &task.Task{ID: uuid.New(), Title: title, Status: status}
}

func TestGenerate_FixedBranches(t *testing.T) {
	t.Parallel()

	if got := Generate(intent.Intent{Label: intent.LabelGreeting}, nil); got != GreetingReply {
		t.Errorf("greeting reply = %q", got)
	}
	if got := Generate(intent.Intent{Label: intent.LabelOffTopic}, nil); got != OffTopicReply {
		t.Errorf("off-topic reply = %q, want %q", got, OffTopicReply)
	}
}

func TestGenerate_Success(t *testing.T) {
	t.Parallel()

	taskQuery := intent.Intent{Label: intent.LabelTaskQuery}

	tests := []struct {
		name   string
		result tool.Result
		want   string
	}{
		{
			name:   "add",
			result: tool.Result{Tool: tool.ToolAddTask, Status: tool.StatusOK, Task: taskNamed("buy milk", task.StatusPending)},
			want:   `Added "buy milk" to your list.`,
		},
		{
			name:   "complete",
			result: tool.Result{Tool: tool.ToolCompleteTask, Status: tool.StatusOK, Task: taskNamed("buy milk", task.StatusCompleted)},
			want:   `Marked "buy milk" as completed.`,
		},
		{
			name:   "update",
			result: tool.Result{Tool: tool.ToolUpdateTask, Status: tool.StatusOK, Task: taskNamed("buy bread", task.StatusPending)},
			want:   `Updated the task to "buy bread".`,
		},
		{
			name:   "delete",
			result: tool.Result{Tool: tool.ToolDeleteTask, Status: tool.StatusOK, DeletedTaskID: uuid.New()},
			want:   "Deleted the task.",
		},
		{
			name:   "empty list",
			result: tool.Result{Tool: tool.ToolListTasks, Status: tool.StatusOK},
			want:   "You have no tasks yet.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Generate(taskQuery, &tt.result); got != tt.want {
				t.Errorf("Generate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerate_List(t *testing.T) {
	t.Parallel()

	res := tool.Result{
		Tool:   tool.ToolListTasks,
		Status: tool.StatusOK,
		Tasks: []*task.Task{
			taskNamed("buy milk", task.StatusPending),
			taskNamed("walk dog", task.StatusCompleted),
		},
		Count: 2,
	}

	got := Generate(intent.Intent{Label: intent.LabelTaskQuery}, &res)
	if !strings.Contains(got, "2 tasks") {
		t.Errorf("list reply missing count: %q", got)
	}
	if !strings.Contains(got, "buy milk (pending)") || !strings.Contains(got, "walk dog (completed)") {
		t.Errorf("list reply missing entries: %q", got)
	}
}

func TestGenerate_Clarification(t *testing.T) {
	t.Parallel()

	in := intent.Intent{Label: intent.LabelTaskQuery}

	res := tool.Result{Tool: tool.ToolAddTask, Status: tool.StatusClarificationNeeded, MissingField: "title"}
	if got := Generate(in, &res); !strings.Contains(got, "called") {
		t.Errorf("title clarification = %q", got)
	}

	res = tool.Result{Tool: tool.ToolDeleteTask, Status: tool.StatusClarificationNeeded, MissingField: "task"}
	if got := Generate(in, &res); got != "Which task do you mean?" {
		t.Errorf("task clarification = %q", got)
	}
}

// Denied and failed outcomes must read identically and leak nothing.
func TestGenerate_FailuresLeakNothing(t *testing.T) {
	t.Parallel()

	in := intent.Intent{Label: intent.LabelTaskQuery}

	denied := Generate(in, &tool.Result{Tool: tool.ToolDeleteTask, Status: tool.StatusAuthorizationDenied})
	failed := Generate(in, &tool.Result{Tool: tool.ToolDeleteTask, Status: tool.StatusFailure})

	if denied != failed {
		t.Errorf("denied %q and failed %q replies should match", denied, failed)
	}
	for _, fragment := range []string{"denied", "authorization", "sql", "error:"} {
		if strings.Contains(strings.ToLower(denied), fragment) {
			t.Errorf("reply leaks internal detail %q: %q", fragment, denied)
		}
	}
}

func TestGenerate_BoundedLength(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("very long task title ", 30)
	res := tool.Result{Tool: tool.ToolAddTask, Status: tool.StatusOK, Task: taskNamed(long, task.StatusPending)}

	got := Generate(intent.Intent{Label: intent.LabelTaskQuery}, &res)
	if n := len([]rune(got)); n > maxReplyRunes {
		t.Errorf("reply length = %d runes, want <= %d", n, maxReplyRunes)
	}
}
