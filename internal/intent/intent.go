// Package intent classifies free-text chat messages into a closed set of
// intents the assistant can act on.
//
// Classification is a pure function: no I/O, no errors, and identical
// input always yields an identical Intent. Downstream components switch
// on the Label/Action pair instead of re-inspecting the raw text.
package intent

// Label is the top-level classification of a message.
type Label string

// Classification labels.
const (
	// LabelTaskQuery marks a message that asks for a task operation.
	LabelTaskQuery Label = "task_query"

	// LabelGreeting marks a purely social opener.
	LabelGreeting Label = "greeting"

	// LabelOffTopic marks everything else, including empty input.
	LabelOffTopic Label = "off_topic"
)

// Action is the task operation requested by a task query.
type Action string

// Task actions.
const (
	ActionAdd      Action = "add"
	ActionList     Action = "list"
	ActionUpdate   Action = "update"
	ActionComplete Action = "complete"
	ActionDelete   Action = "delete"
)

// Intent is the classification result for one message.
//
// Action and the slot fields are only meaningful when Label is
// LabelTaskQuery. Slots are candidates: a task verb with no extractable
// title or reference still classifies as a task query, and the missing
// slot is handled downstream as a clarification, never as a failure here.
type Intent struct {
	Label  Label
	Action Action

	// Title is the candidate task title extracted from the remainder
	// of the message after the verb and stopwords.
	Title string

	// TaskRef is a candidate reference to an existing task: a UUID, a
	// list ordinal ("2"), or a title fragment, exactly as the user
	// typed it. Resolution happens downstream.
	TaskRef string
}

// IsTaskQuery reports whether the intent requests a task operation.
func (i Intent) IsTaskQuery() bool {
	return i.Label == LabelTaskQuery
}
