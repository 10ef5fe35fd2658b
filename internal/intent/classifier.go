package intent

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// verbActions maps explicit task-action verbs to their operation.
// First matching token in the message wins.
var verbActions = map[string]Action{
	"add":    ActionAdd,
	"create": ActionAdd,

	"list":    ActionList,
	"show":    ActionList,
	"display": ActionList,

	"update": ActionUpdate,
	"change": ActionUpdate,
	"rename": ActionUpdate,
	"edit":   ActionUpdate,

	"complete": ActionComplete,
	"finish":   ActionComplete,
	"done":     ActionComplete,

	"delete": ActionDelete,
	"remove": ActionDelete,
}

// greetingTokens are recognized social openers.
var greetingTokens = map[string]bool{
	"hi":        true,
	"hello":     true,
	"hey":       true,
	"howdy":     true,
	"greetings": true,
	"yo":        true,
}

// stopwords are filler tokens dropped when extracting a title or task
// reference from the text after the verb.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "my": true, "me": true,
	"to": true, "for": true, "of": true, "please": true,
	"task": true, "tasks": true, "todo": true, "todos": true,
	"item": true, "items": true, "called": true, "named": true,
	"titled": true, "number": true, "all": true, "as": true,
	"mark": true, "set": true, "title": true, "it": true,
}

// Classify maps raw message text to an Intent.
//
// Priority order, first match wins:
//  1. empty or whitespace-only text is off-topic
//  2. an explicit task verb makes it a task query, even when a greeting
//     token appears in the same message (action outranks social framing)
//  3. a greeting token makes it a greeting
//  4. everything else is off-topic
func Classify(text string) Intent {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Intent{Label: LabelOffTopic}
	}

	for i, tok := range tokens {
		if action, ok := verbActions[tok]; ok {
			return classifyTaskQuery(action, tokens[:i], tokens[i+1:])
		}
	}

	for i, tok := range tokens {
		if greetingTokens[tok] {
			return Intent{Label: LabelGreeting}
		}
		// "good morning" and friends.
		if tok == "good" && i+1 < len(tokens) {
			switch tokens[i+1] {
			case "morning", "afternoon", "evening", "day":
				return Intent{Label: LabelGreeting}
			}
		}
	}

	return Intent{Label: LabelOffTopic}
}

// classifyTaskQuery builds the task-query intent from the tokens around
// the matched verb. The remainder after the verb is preferred; for verbs
// that reference an existing task ("mark task 5 as done") the tokens
// before the verb are the fallback. Missing slots are left empty; the
// dispatcher turns those into clarification questions.
func classifyTaskQuery(action Action, before, after []string) Intent {
	in := Intent{Label: LabelTaskQuery, Action: action}

	remainder := dropStopwords(after)
	if len(remainder) == 0 && action != ActionAdd && action != ActionList {
		remainder = dropStopwords(before)
	}
	if len(remainder) == 0 {
		return in
	}

	switch action {
	case ActionAdd:
		in.Title = strings.Join(remainder, " ")
	case ActionList:
		// list takes no slots
	case ActionUpdate:
		// First token that looks like a reference is the target; the
		// rest is the replacement title.
		in.TaskRef = remainder[0]
		if len(remainder) > 1 {
			in.Title = strings.Join(remainder[1:], " ")
		}
	case ActionComplete, ActionDelete:
		in.TaskRef = strings.Join(remainder, " ")
	}

	return in
}

// dropStopwords filters filler tokens but never drops something that
// looks like a task reference (UUIDs and bare numbers survive).
func dropStopwords(tokens []string) []string {
	var out []string
	for _, tok := range tokens {
		if stopwords[tok] && !isReference(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// isReference reports whether tok plausibly identifies an existing task.
func isReference(tok string) bool {
	if _, err := uuid.Parse(tok); err == nil {
		return true
	}
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(tok) > 0
}

// tokenize lowercases the text and splits it into tokens, stripping
// punctuation at token edges so "hello!" and "task." match cleanly.
// Hyphens and interior characters are kept to preserve UUIDs.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) && r != '-'
		})
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
