// Package command parses the input line into a closed set of commands and
// executes them against the task service, keeping the display engine and
// activity log in step with every mutation.
package command

import (
	"strings"

	"github.com/Brandtweary/cyberorganism/internal/domain"
)

// Command is one parsed input line. The set of implementations is closed:
// anything that does not match a known verb is a Create.
type Command interface {
	isCommand()
}

// Create adds a new top-level task with the given content.
type Create struct {
	Content string
}

// Complete marks the queried task done and archives it.
type Complete struct {
	Query string
}

// Delete removes the queried task.
type Delete struct {
	Query string
}

// MoveTo moves the queried task to another container.
type MoveTo struct {
	Container domain.Container
	Query     string
}

// Focus moves focus to the queried task and loads its content for editing.
type Focus struct {
	Query string
}

// Show switches the display to another container.
type Show struct {
	Container domain.Container
}

// Toggle folds or unfolds the queried task's subtasks.
type Toggle struct {
	Query string
}

// AddSubtask creates a new task under the queried parent.
type AddSubtask struct {
	ParentQuery string
	Content     string
}

// Edit replaces a task's content. It is produced by the editing flow rather
// than the parser: committing the input buffer while a task is focused edits
// that task in place.
type Edit struct {
	TaskID  string
	Content string
}

func (Create) isCommand()     {}
func (Complete) isCommand()   {}
func (Delete) isCommand()     {}
func (MoveTo) isCommand()     {}
func (Focus) isCommand()      {}
func (Show) isCommand()       {}
func (Toggle) isCommand()     {}
func (AddSubtask) isCommand() {}
func (Edit) isCommand()       {}

// Parse turns an input line into a command. The grammar is verb-first:
//
//	complete <query>
//	delete <query>
//	move to <container> <query>
//	focus <query>
//	toggle [<query>]
//	show <container>
//	subtask <parent query> <content>
//
// A query is a display path ("1", "2.3"), or the exact content of a visible
// task. An empty query targets the focused task. Any line that matches no
// verb creates a task with the line as its content; nothing the user types
// is ever rejected as a syntax error.
func Parse(input string) Command {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}

	verb, rest := splitVerb(trimmed)
	switch verb {
	case "complete":
		return Complete{Query: rest}
	case "delete":
		return Delete{Query: rest}
	case "focus":
		return Focus{Query: rest}
	case "toggle":
		return Toggle{Query: rest}
	case "show":
		if container, ok := domain.ParseContainer(rest); ok {
			return Show{Container: container}
		}
	case "move":
		if target, query, ok := parseMoveTarget(rest); ok {
			return MoveTo{Container: target, Query: query}
		}
	case "subtask":
		parentQuery, content := splitVerb(rest)
		if parentQuery != "" && content != "" {
			return AddSubtask{ParentQuery: parentQuery, Content: content}
		}
	}
	return Create{Content: trimmed}
}

// splitVerb separates the first whitespace-delimited word from the rest.
func splitVerb(s string) (string, string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

// parseMoveTarget parses the "to <container> <query>" tail of a move command.
func parseMoveTarget(rest string) (domain.Container, string, bool) {
	to, tail := splitVerb(rest)
	if to != "to" {
		return "", "", false
	}
	name, query := splitVerb(tail)
	container, ok := domain.ParseContainer(name)
	if !ok {
		return "", "", false
	}
	return container, query, true
}
