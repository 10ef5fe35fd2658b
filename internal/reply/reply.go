// Package reply renders the assistant's user-facing answer for one turn.
//
// Generation is a deterministic branch table over (intent, tool result):
// no I/O, no errors, no model calls. Replies are short, conversational,
// and never leak internal error detail.
package reply

import (
	"fmt"
	"strings"

	"github.com/taskpilot/taskpilot/internal/intent"
	"github.com/taskpilot/taskpilot/internal/tool"
)

// Fixed replies.
const (
	// OffTopicReply is returned verbatim for any non-task, non-greeting
	// message.
	OffTopicReply = "Task-related input required."

	// GreetingReply answers a social opener.
	GreetingReply = "Hi! How can I help with your tasks today?"

	// failureReply covers denied, failed and unknown outcomes without
	// exposing what went wrong internally.
	failureReply = "Sorry, I couldn't do that. Please try again."

	// timeoutReply covers a tool call that exceeded its deadline.
	timeoutReply = "Sorry, that took too long. Please try again in a moment."
)

// maxReplyRunes bounds the reply length; longer lists are elided.
const maxReplyRunes = 400

// listPreviewLimit is how many tasks a list reply names before eliding.
const listPreviewLimit = 5

// Generate maps a classified intent and an optional tool result to the
// assistant's reply text. result is nil for greeting and off-topic
// turns, which never dispatch a tool.
func Generate(in intent.Intent, result *tool.Result) string {
	switch in.Label {
	case intent.LabelGreeting:
		return GreetingReply
	case intent.LabelOffTopic:
		return OffTopicReply
	case intent.LabelTaskQuery:
		if result == nil {
			// A task query with no dispatch means orchestration failed
			// before the gateway; answer like any other failure.
			return failureReply
		}
		return truncate(forResult(*result))
	default:
		return OffTopicReply
	}
}

// forResult renders the reply for a completed dispatch.
func forResult(res tool.Result) string {
	switch res.Status {
	case tool.StatusOK:
		return forSuccess(res)
	case tool.StatusClarificationNeeded:
		return forClarification(res.MissingField)
	case tool.StatusTimeout:
		return timeoutReply
	default:
		// Authorization denials deliberately read like any other
		// failure so replies don't reveal which tasks exist.
		return failureReply
	}
}

func forSuccess(res tool.Result) string {
	switch res.Tool {
	case tool.ToolAddTask:
		return fmt.Sprintf("Added %q to your list.", res.Task.Title)
	case tool.ToolListTasks:
		return forList(res)
	case tool.ToolUpdateTask:
		return fmt.Sprintf("Updated the task to %q.", res.Task.Title)
	case tool.ToolCompleteTask:
		return fmt.Sprintf("Marked %q as completed.", res.Task.Title)
	case tool.ToolDeleteTask:
		return "Deleted the task."
	default:
		return "Done."
	}
}

func forList(res tool.Result) string {
	if res.Count == 0 {
		return "You have no tasks yet."
	}

	var b strings.Builder
	if res.Count == 1 {
		b.WriteString("You have 1 task: ")
	} else {
		fmt.Fprintf(&b, "You have %d tasks: ", res.Count)
	}

	shown := min(len(res.Tasks), listPreviewLimit)
	for i := 0; i < shown; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d. %s (%s)", i+1, res.Tasks[i].Title, res.Tasks[i].Status)
	}
	if res.Count > shown {
		fmt.Fprintf(&b, " and %d more", res.Count-shown)
	}
	b.WriteString(".")
	return b.String()
}

func forClarification(field string) string {
	switch field {
	case "title":
		return "Sure, what should the task be called?"
	case "task":
		return "Which task do you mean?"
	default:
		return fmt.Sprintf("Could you tell me the %s?", field)
	}
}

// truncate bounds the reply length at a rune boundary.
func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxReplyRunes {
		return s
	}
	return string(runes[:maxReplyRunes-1]) + "…"
}
