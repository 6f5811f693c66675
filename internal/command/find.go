package command

import (
	"github.com/agnivade/levenshtein"

	"github.com/Brandtweary/cyberorganism/internal/display"
	"github.com/Brandtweary/cyberorganism/internal/domain"
)

// ResolveQuery maps a task query to a task id. Display paths ("1", "2.3.")
// are tried first, then exact content match within the active container. An
// empty query resolves to the focused task. Queries that look like a display
// path but point outside the visible list do not fall back to content
// matching, so a mistyped index never edits an unrelated task.
func ResolveQuery(engine *display.Engine, tasks []domain.Task, query string) (string, bool) {
	if query == "" {
		return engine.FocusedTaskID()
	}
	if _, err := display.ParseTaskIndex(query); err == nil {
		return engine.TaskIDByPath(query, tasks)
	}
	if idx := domain.FindTaskByContent(tasks, query, engine.ActiveContainer()); idx >= 0 {
		return tasks[idx].ID, true
	}
	return "", false
}

// maxSuggestionDistance caps how fuzzy a "did you mean" hint may be.
const maxSuggestionDistance = 3

// SuggestClosest returns the visible task content nearest to the failed
// query, for the activity log's "did you mean" hint. Only reasonably close
// matches are offered.
func SuggestClosest(engine *display.Engine, tasks []domain.Task, query string) (string, bool) {
	best := ""
	bestDistance := maxSuggestionDistance + 1
	for i := range tasks {
		if tasks[i].Container != engine.ActiveContainer() {
			continue
		}
		if _, visible := engine.DisplayIndex(tasks[i].ID); !visible {
			continue
		}
		d := levenshtein.ComputeDistance(query, tasks[i].Content)
		if d < bestDistance {
			bestDistance = d
			best = tasks[i].Content
		}
	}
	if best == "" || bestDistance > maxSuggestionDistance {
		return "", false
	}
	return best, true
}
