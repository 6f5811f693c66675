// Package display owns the mapping from a flat task collection to the
// linearized, foldable, addressable list the UI renders, together with the
// focus position and the input buffer derived from it.
//
// The engine keeps one hard rule: whenever the fold state, active container,
// or underlying task set changes, Recompute must run so that the visible
// order, the focused index, and the input buffer stay consistent. Focus
// changes should go through FocusTask rather than poking the index directly;
// it updates the buffer and raises the UI refocus flags in one step.
package display

import (
	"github.com/Brandtweary/cyberorganism/internal/domain"
)

// noFocus marks the absence of a focused row.
const noFocus = -1

// Engine tracks the display state for the active container: the ordered list
// of visible task ids, the focused slot in the virtual list (slot 0 is the
// "create new task or enter commands" row), the per-task fold set, and the
// input buffer mirroring the focused task's content.
//
// The engine is not safe for concurrent use: every operation runs to
// completion on the UI loop in response to one discrete user action.
type Engine struct {
	displayToID     []string
	focusedIndex    int
	inputValue      string
	inputCursor     int
	activeContainer domain.Container
	folded          map[string]struct{}

	initialStartup   bool
	requestRefocus   bool
	requestCursorEnd bool
	syncInputWithUI  bool
}

// NewEngine constructs an engine showing the taskpad with slot 0 focused.
func NewEngine() *Engine {
	return &Engine{
		focusedIndex:    0,
		activeContainer: domain.ContainerTaskpad,
		folded:          map[string]struct{}{},
		initialStartup:  true,
	}
}

// ActiveContainer returns the bucket currently being displayed.
func (e *Engine) ActiveContainer() domain.Container {
	return e.activeContainer
}

// SetActiveContainer switches the displayed bucket and rebuilds the display
// list, since the previous ordering is meaningless for the new container.
func (e *Engine) SetActiveContainer(container domain.Container, tasks []domain.Task) {
	e.activeContainer = container
	e.Recompute(tasks)
}

// Recompute rebuilds the display order from the current tasks: a depth-first
// pre-order walk over top-level tasks in the active container, descending
// only through expanded nodes. Focus beyond the new list length resets to
// slot 0, and the input buffer is resynchronized against the new ordering.
func (e *Engine) Recompute(tasks []domain.Task) {
	ids := make([]string, 0, len(tasks))
	for i := range tasks {
		task := &tasks[i]
		if task.Container != e.activeContainer || !task.IsTopLevel() {
			continue
		}
		ids = append(ids, task.ID)
		if e.IsExpanded(task.ID) {
			ids = e.appendChildren(task.ID, tasks, ids)
		}
	}
	e.displayToID = ids

	if e.focusedIndex != noFocus && e.focusedIndex > len(e.displayToID) {
		e.focusedIndex = 0
	}
	e.SyncInputForFocus(tasks)
}

// appendChildren adds the visible subtree of parentID in child-list order.
func (e *Engine) appendChildren(parentID string, tasks []domain.Task, ids []string) []string {
	parent := domain.FindTask(tasks, parentID)
	if parent == nil {
		return ids
	}
	for _, childID := range parent.ChildIDs {
		if domain.FindTask(tasks, childID) == nil {
			continue
		}
		ids = append(ids, childID)
		if e.IsExpanded(childID) {
			ids = e.appendChildren(childID, tasks, ids)
		}
	}
	return ids
}

// DisplayToID returns a copy of the visible task ids in display order.
func (e *Engine) DisplayToID() []string {
	out := make([]string, len(e.displayToID))
	copy(out, e.displayToID)
	return out
}

// TaskIDByPath resolves a display path such as "1.2.3" to a task id. The
// first segment indexes the visible top-level tasks; each later segment
// indexes the current task's existing children, but only while the current
// task is expanded. Resolution fails closed: any malformed segment, folded
// ancestor, or out-of-range index yields no match.
func (e *Engine) TaskIDByPath(path string, tasks []domain.Task) (string, bool) {
	index, err := ParseTaskIndex(path)
	if err != nil {
		return "", false
	}
	segments := index.Path()

	var topLevel []*domain.Task
	for i := range tasks {
		if tasks[i].Container == e.activeContainer && tasks[i].IsTopLevel() {
			topLevel = append(topLevel, &tasks[i])
		}
	}
	first := segments[0] - 1
	if first >= len(topLevel) {
		return "", false
	}
	current := topLevel[first]

	for _, segment := range segments[1:] {
		if !e.IsExpanded(current.ID) {
			return "", false
		}
		var children []*domain.Task
		for _, childID := range current.ChildIDs {
			if child := domain.FindTask(tasks, childID); child != nil {
				children = append(children, child)
			}
		}
		pos := segment - 1
		if pos >= len(children) {
			return "", false
		}
		current = children[pos]
	}
	return current.ID, true
}

// DisplayIndex returns the 1-based display position for a task id.
func (e *Engine) DisplayIndex(taskID string) (int, bool) {
	for i, id := range e.displayToID {
		if id == taskID {
			return i + 1, true
		}
	}
	return 0, false
}

// Len returns the number of visible tasks, excluding the slot 0 row.
func (e *Engine) Len() int {
	return len(e.displayToID)
}

// IsEmpty reports whether no tasks are visible.
func (e *Engine) IsEmpty() bool {
	return len(e.displayToID) == 0
}

// FocusedIndex returns the focused slot in the virtual list, if any.
func (e *Engine) FocusedIndex() (int, bool) {
	if e.focusedIndex == noFocus {
		return 0, false
	}
	return e.focusedIndex, true
}

// FocusedTaskID returns the id of the focused task, if a task row is focused.
func (e *Engine) FocusedTaskID() (string, bool) {
	if e.focusedIndex <= 0 || e.focusedIndex > len(e.displayToID) {
		return "", false
	}
	return e.displayToID[e.focusedIndex-1], true
}

// FocusedContent returns the content of the focused task. Slot 0 and
// out-of-range focus yield no content.
func (e *Engine) FocusedContent(tasks []domain.Task) (string, bool) {
	id, ok := e.FocusedTaskID()
	if !ok {
		return "", false
	}
	task := domain.FindTask(tasks, id)
	if task == nil {
		return "", false
	}
	return task.Content, true
}

// FocusPrevious moves focus up one slot, wrapping from slot 0 to the bottom.
// Callers resynchronize the input buffer afterwards.
func (e *Engine) FocusPrevious() {
	switch {
	case e.focusedIndex == noFocus:
		e.focusedIndex = 0
	case e.focusedIndex == 0:
		e.focusedIndex = len(e.displayToID)
	default:
		e.focusedIndex--
	}
}

// FocusNext moves focus down one slot, wrapping past the last task to slot 0.
// Callers resynchronize the input buffer afterwards.
func (e *Engine) FocusNext() {
	switch {
	case e.focusedIndex == noFocus:
		e.focusedIndex = 0
	case e.focusedIndex >= len(e.displayToID):
		e.focusedIndex = 0
	default:
		e.focusedIndex++
	}
}

// ClearFocus removes the focus entirely.
func (e *Engine) ClearFocus() {
	e.focusedIndex = noFocus
}

// InputValue returns the current input buffer contents.
func (e *Engine) InputValue() string {
	return e.inputValue
}

// InputCursor returns the cursor offset into the input buffer.
func (e *Engine) InputCursor() int {
	return e.inputCursor
}

// ResetInput clears the input buffer.
func (e *Engine) ResetInput() {
	e.inputValue = ""
	e.inputCursor = 0
}

// SetInput replaces the input buffer and places the cursor at the end.
func (e *Engine) SetInput(content string) {
	e.inputValue = content
	e.inputCursor = len(content)
}

// SetCursorPosition clamps and stores the cursor offset.
func (e *Engine) SetCursorPosition(position int) {
	if position < 0 {
		position = 0
	}
	if position > len(e.inputValue) {
		position = len(e.inputValue)
	}
	e.inputCursor = position
}

// SyncInputForFocus re-derives the input buffer from the focused task. The
// buffer is never mutated independently: it always reflects the task at the
// focused index, or is empty at slot 0. A focus that no longer resolves to a
// visible task collapses back to slot 0.
func (e *Engine) SyncInputForFocus(tasks []domain.Task) {
	hasTasksInContainer := false
	for i := range tasks {
		if tasks[i].Container == e.activeContainer {
			hasTasksInContainer = true
			break
		}
	}
	if !hasTasksInContainer {
		e.focusedIndex = 0
		e.ResetInput()
		return
	}

	if e.focusedIndex == 0 {
		e.ResetInput()
		return
	}
	if content, ok := e.FocusedContent(tasks); ok {
		e.SetInput(content)
		return
	}
	e.focusedIndex = 0
	e.ResetInput()
}

// FocusTask focuses a task and updates the input buffer in one step. An
// empty id focuses slot 0 and clears the buffer. A task id focuses its
// display row and copies its content into the buffer; ids that are not
// currently visible (folded away or gone) return false and leave focus
// unchanged. Either success raises the UI refocus and cursor-at-end flags.
func (e *Engine) FocusTask(taskID string, tasks []domain.Task) bool {
	if taskID == "" {
		e.focusedIndex = 0
		e.ResetInput()
		e.requestRefocus = true
		e.requestCursorEnd = true
		e.syncInputWithUI = true
		return true
	}

	displayIdx, ok := e.DisplayIndex(taskID)
	if !ok {
		return false
	}
	e.focusedIndex = displayIdx
	if task := domain.FindTask(tasks, taskID); task != nil {
		e.SetInput(task.Content)
	} else {
		e.ResetInput()
	}
	e.requestRefocus = true
	e.requestCursorEnd = true
	e.syncInputWithUI = true
	return true
}

// ToggleFold flips the fold state of a task and rebuilds the display list.
// Fold state is sticky per task: re-expanding an ancestor reveals children in
// whatever fold state they were left in.
func (e *Engine) ToggleFold(taskID string, tasks []domain.Task) {
	if e.IsFolded(taskID) {
		delete(e.folded, taskID)
	} else {
		e.Fold(taskID)
	}
	e.Recompute(tasks)
}

// IsExpanded reports whether a task's children are visible.
func (e *Engine) IsExpanded(taskID string) bool {
	_, folded := e.folded[taskID]
	return !folded
}

// IsFolded reports whether a task hides its children.
func (e *Engine) IsFolded(taskID string) bool {
	_, folded := e.folded[taskID]
	return folded
}

// Fold marks a single task folded without rebuilding the display list.
func (e *Engine) Fold(taskID string) {
	e.folded[taskID] = struct{}{}
}

// FoldMany marks a set of tasks folded without rebuilding the display list.
func (e *Engine) FoldMany(taskIDs []string) {
	for _, id := range taskIDs {
		e.folded[id] = struct{}{}
	}
}

// CollapseAll folds every currently visible task.
func (e *Engine) CollapseAll() {
	e.FoldMany(e.displayToID)
}

// NearestTaskAtSameLevel finds the task that should receive focus when the
// given task disappears. Subtasks prefer the nearest sibling under the same
// parent (previous first). Top-level tasks scan the display order outward,
// preferring the nearest preceding top-level task, then the nearest
// following one.
func (e *Engine) NearestTaskAtSameLevel(tasks []domain.Task, taskID string) (string, bool) {
	task := domain.FindTask(tasks, taskID)
	if task == nil {
		return "", false
	}
	if !task.IsTopLevel() {
		return domain.FindNearestSibling(tasks, taskID)
	}

	displayIdx := -1
	for i, id := range e.displayToID {
		if id == taskID {
			displayIdx = i
			break
		}
	}
	if displayIdx < 0 {
		return "", false
	}
	for i := displayIdx - 1; i >= 0; i-- {
		if candidate := domain.FindTask(tasks, e.displayToID[i]); candidate != nil && candidate.IsTopLevel() {
			return candidate.ID, true
		}
	}
	for i := displayIdx + 1; i < len(e.displayToID); i++ {
		if candidate := domain.FindTask(tasks, e.displayToID[i]); candidate != nil && candidate.IsTopLevel() {
			return candidate.ID, true
		}
	}
	return "", false
}

// TakeUIRequests returns and clears the pending refocus, cursor-at-end, and
// input-sync signals. The UI consumes these once per frame.
func (e *Engine) TakeUIRequests() (refocus, cursorAtEnd, syncInput bool) {
	refocus = e.requestRefocus
	cursorAtEnd = e.requestCursorEnd
	syncInput = e.syncInputWithUI
	e.requestRefocus = false
	e.requestCursorEnd = false
	e.syncInputWithUI = false
	return refocus, cursorAtEnd, syncInput
}

// TakeInitialStartup reports and clears the first-frame startup flag.
func (e *Engine) TakeInitialStartup() bool {
	v := e.initialStartup
	e.initialStartup = false
	return v
}
