package display

import (
	"reflect"
	"testing"

	"github.com/Brandtweary/cyberorganism/internal/domain"
)

func makeTask(id, content, parentID string, childIDs ...string) domain.Task {
	return domain.Task{
		ID:        id,
		Content:   content,
		Container: domain.ContainerTaskpad,
		Status:    domain.StatusTodo,
		ParentID:  parentID,
		ChildIDs:  childIDs,
	}
}

func TestRecomputeResolvesFirstTask(t *testing.T) {
	tasks := []domain.Task{
		makeTask("t1", "first", ""),
		makeTask("t2", "second", ""),
	}
	e := NewEngine()
	e.Recompute(tasks)

	id, ok := e.TaskIDByPath("1", tasks)
	if !ok {
		t.Fatal("expected path 1 to resolve")
	}
	if id != "t1" {
		t.Fatalf("path 1 resolved to %q, want t1", id)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	tasks := []domain.Task{
		makeTask("t1", "parent", "", "t2"),
		makeTask("t2", "child", "t1"),
		makeTask("t3", "other", ""),
	}
	e := NewEngine()
	e.Recompute(tasks)
	first := e.DisplayToID()
	e.Recompute(tasks)
	second := e.DisplayToID()

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("recompute not idempotent: %v then %v", first, second)
	}
	if want := []string{"t1", "t2", "t3"}; !reflect.DeepEqual(first, want) {
		t.Fatalf("display order %v, want %v", first, want)
	}
}

func TestFoldingHidesSubtree(t *testing.T) {
	tasks := []domain.Task{
		makeTask("t1", "parent", "", "t2"),
		makeTask("t2", "child", "t1", "t3"),
		makeTask("t3", "grandchild", "t2"),
	}
	e := NewEngine()
	e.Recompute(tasks)
	if got := e.Len(); got != 3 {
		t.Fatalf("visible count = %d, want 3", got)
	}

	e.ToggleFold("t1", tasks)
	if got := e.DisplayToID(); !reflect.DeepEqual(got, []string{"t1"}) {
		t.Fatalf("folded display = %v, want [t1]", got)
	}
	if _, ok := e.DisplayIndex("t2"); ok {
		t.Fatal("t2 should not be visible under a folded parent")
	}

	e.ToggleFold("t1", tasks)
	if got := e.DisplayToID(); !reflect.DeepEqual(got, []string{"t1", "t2", "t3"}) {
		t.Fatalf("unfolded display = %v, want [t1 t2 t3]", got)
	}
}

func TestFoldStateIsStickyPerTask(t *testing.T) {
	tasks := []domain.Task{
		makeTask("t1", "parent", "", "t2"),
		makeTask("t2", "child", "t1", "t3"),
		makeTask("t3", "grandchild", "t2"),
	}
	e := NewEngine()
	e.Recompute(tasks)

	e.ToggleFold("t2", tasks)
	e.ToggleFold("t1", tasks)
	e.ToggleFold("t1", tasks)

	if got := e.DisplayToID(); !reflect.DeepEqual(got, []string{"t1", "t2"}) {
		t.Fatalf("display = %v, want [t1 t2]: t2 should have kept its fold", got)
	}
}

func TestPathResolutionFailsClosed(t *testing.T) {
	tasks := []domain.Task{
		makeTask("t1", "parent", "", "t2"),
		makeTask("t2", "child", "t1"),
	}
	e := NewEngine()
	e.Recompute(tasks)

	cases := []string{"", "0", "3", "1.2", "2.1", "a.b", "1..2", "-1"}
	for _, path := range cases {
		if _, ok := e.TaskIDByPath(path, tasks); ok {
			t.Errorf("path %q resolved, want failure", path)
		}
	}

	// Descending through a folded task fails even though the child exists.
	e.ToggleFold("t1", tasks)
	if _, ok := e.TaskIDByPath("1.1", tasks); ok {
		t.Fatal("path through folded parent should fail")
	}
	before := e.DisplayToID()
	e.TaskIDByPath("1.1", tasks)
	if !reflect.DeepEqual(before, e.DisplayToID()) {
		t.Fatal("failed resolution mutated display state")
	}
}

func TestTrailingDotAccepted(t *testing.T) {
	tasks := []domain.Task{
		makeTask("t1", "parent", "", "t2"),
		makeTask("t2", "child", "t1"),
	}
	e := NewEngine()
	e.Recompute(tasks)

	id, ok := e.TaskIDByPath("1.1.", tasks)
	if !ok || id != "t2" {
		t.Fatalf("path 1.1. resolved to (%q, %v), want (t2, true)", id, ok)
	}
}

func TestFocusWrapsAroundVirtualList(t *testing.T) {
	tasks := []domain.Task{
		makeTask("t1", "a", ""),
		makeTask("t2", "b", ""),
		makeTask("t3", "c", ""),
	}
	e := NewEngine()
	e.Recompute(tasks)

	want := []int{1, 2, 3, 0, 1}
	for i, w := range want {
		e.FocusNext()
		got, ok := e.FocusedIndex()
		if !ok || got != w {
			t.Fatalf("after %d FocusNext: index = (%d, %v), want %d", i+1, got, ok, w)
		}
	}

	e.ClearFocus()
	if _, ok := e.FocusedIndex(); ok {
		t.Fatal("focus should be cleared")
	}
	e.FocusPrevious()
	if got, _ := e.FocusedIndex(); got != 0 {
		t.Fatalf("FocusPrevious from cleared focus = %d, want 0", got)
	}
	e.FocusPrevious()
	if got, _ := e.FocusedIndex(); got != 3 {
		t.Fatalf("FocusPrevious from slot 0 = %d, want 3 (wrap to bottom)", got)
	}
}

// Scenario from daily use: two top-level tasks with a subtask in between,
// then folding the parent hides the subtask from both display and focus.
func TestFoldedSubtaskScenario(t *testing.T) {
	tasks := []domain.Task{
		makeTask("a", "task A", "", "c"),
		makeTask("b", "task B", ""),
		makeTask("c", "subtask C", "a"),
	}
	e := NewEngine()
	e.Recompute(tasks)

	if got := e.DisplayToID(); !reflect.DeepEqual(got, []string{"a", "c", "b"}) {
		t.Fatalf("display = %v, want [a c b]", got)
	}
	if idx, _ := e.DisplayIndex("b"); idx != 3 {
		t.Fatalf("display index of B = %d, want 3", idx)
	}

	e.ToggleFold("a", tasks)
	if got := e.DisplayToID(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("display = %v, want [a b]", got)
	}
	if idx, _ := e.DisplayIndex("b"); idx != 2 {
		t.Fatalf("display index of B after fold = %d, want 2", idx)
	}
	if _, ok := e.TaskIDByPath("1.1", tasks); ok {
		t.Fatal("1.1 should not resolve while A is folded")
	}
	if e.FocusTask("c", tasks) {
		t.Fatal("focusing a hidden task should fail")
	}

	e.ToggleFold("a", tasks)
	if got := e.DisplayToID(); !reflect.DeepEqual(got, []string{"a", "c", "b"}) {
		t.Fatalf("display after unfold = %v, want [a c b]", got)
	}
	id, ok := e.TaskIDByPath("1.1", tasks)
	if !ok || id != "c" {
		t.Fatalf("1.1 after unfold = (%q, %v), want (c, true)", id, ok)
	}
}

func TestFocusTaskUpdatesInputBuffer(t *testing.T) {
	tasks := []domain.Task{
		makeTask("t1", "hello world", ""),
	}
	e := NewEngine()
	e.Recompute(tasks)

	if !e.FocusTask("t1", tasks) {
		t.Fatal("expected focus to succeed")
	}
	if got, _ := e.FocusedIndex(); got != 1 {
		t.Fatalf("focused index = %d, want 1", got)
	}
	if e.InputValue() != "hello world" {
		t.Fatalf("input = %q, want task content", e.InputValue())
	}
	if e.InputCursor() != len("hello world") {
		t.Fatalf("cursor = %d, want end of content", e.InputCursor())
	}
	refocus, cursorEnd, syncInput := e.TakeUIRequests()
	if !refocus || !cursorEnd || !syncInput {
		t.Fatalf("UI requests = (%v, %v, %v), want all raised", refocus, cursorEnd, syncInput)
	}
	if refocus, _, _ := e.TakeUIRequests(); refocus {
		t.Fatal("UI requests should be cleared after consumption")
	}

	if !e.FocusTask("", tasks) {
		t.Fatal("focusing slot 0 should succeed")
	}
	if got, _ := e.FocusedIndex(); got != 0 {
		t.Fatalf("focused index = %d, want 0", got)
	}
	if e.InputValue() != "" {
		t.Fatalf("input = %q, want empty at slot 0", e.InputValue())
	}
}

func TestDeletedFocusedTaskResetsFocus(t *testing.T) {
	tasks := []domain.Task{
		makeTask("t1", "only task", ""),
	}
	e := NewEngine()
	e.Recompute(tasks)
	e.FocusTask("t1", tasks)

	e.Recompute([]domain.Task{})
	if got, ok := e.FocusedIndex(); !ok || got != 0 {
		t.Fatalf("focus after deletion = (%d, %v), want (0, true)", got, ok)
	}
	if e.InputValue() != "" {
		t.Fatalf("input = %q, want empty after deletion", e.InputValue())
	}
}

func TestSyncInputTracksFocusedTask(t *testing.T) {
	tasks := []domain.Task{
		makeTask("t1", "alpha", ""),
		makeTask("t2", "beta", ""),
	}
	e := NewEngine()
	e.Recompute(tasks)

	e.FocusNext()
	e.SyncInputForFocus(tasks)
	if e.InputValue() != "alpha" {
		t.Fatalf("input = %q, want alpha", e.InputValue())
	}
	e.FocusNext()
	e.SyncInputForFocus(tasks)
	if e.InputValue() != "beta" {
		t.Fatalf("input = %q, want beta", e.InputValue())
	}
	e.FocusNext()
	e.SyncInputForFocus(tasks)
	if e.InputValue() != "" {
		t.Fatalf("input = %q, want empty back at slot 0", e.InputValue())
	}
}

func TestContainerSwitchRebuildsDisplay(t *testing.T) {
	tasks := []domain.Task{
		makeTask("t1", "pad task", ""),
		{ID: "t2", Content: "shelved task", Container: domain.ContainerShelved, Status: domain.StatusTodo},
	}
	e := NewEngine()
	e.Recompute(tasks)
	if got := e.DisplayToID(); !reflect.DeepEqual(got, []string{"t1"}) {
		t.Fatalf("taskpad display = %v, want [t1]", got)
	}

	e.SetActiveContainer(domain.ContainerShelved, tasks)
	if got := e.DisplayToID(); !reflect.DeepEqual(got, []string{"t2"}) {
		t.Fatalf("shelved display = %v, want [t2]", got)
	}
}

func TestCollapseAll(t *testing.T) {
	tasks := []domain.Task{
		makeTask("t1", "p1", "", "c1"),
		makeTask("c1", "child", "t1"),
		makeTask("t2", "p2", "", "c2"),
		makeTask("c2", "child", "t2"),
	}
	e := NewEngine()
	e.Recompute(tasks)
	if got := e.Len(); got != 4 {
		t.Fatalf("visible = %d, want 4", got)
	}

	e.CollapseAll()
	e.Recompute(tasks)
	if got := e.DisplayToID(); !reflect.DeepEqual(got, []string{"t1", "t2"}) {
		t.Fatalf("collapsed display = %v, want [t1 t2]", got)
	}
}

func TestFoldDefersRecompute(t *testing.T) {
	tasks := []domain.Task{
		makeTask("t1", "p1", "", "c1"),
		makeTask("c1", "child", "t1"),
		makeTask("t2", "p2", "", "c2"),
		makeTask("c2", "child", "t2"),
	}
	e := NewEngine()
	e.Recompute(tasks)

	e.Fold("t1")
	if !e.IsFolded("t1") || e.IsFolded("t2") {
		t.Fatalf("fold flags: t1=%v t2=%v", e.IsFolded("t1"), e.IsFolded("t2"))
	}
	// The display list only changes on the next recompute.
	if got := e.Len(); got != 4 {
		t.Fatalf("visible before recompute = %d, want 4", got)
	}
	e.Recompute(tasks)
	if got := e.DisplayToID(); !reflect.DeepEqual(got, []string{"t1", "t2", "c2"}) {
		t.Fatalf("display = %v, want [t1 t2 c2]", got)
	}
}

func TestFoldManyMarksEachTask(t *testing.T) {
	tasks := []domain.Task{
		makeTask("t1", "p1", "", "c1"),
		makeTask("c1", "child", "t1", "g1"),
		makeTask("g1", "grandchild", "c1"),
		makeTask("t2", "p2", "", "c2"),
		makeTask("c2", "child", "t2"),
	}
	e := NewEngine()
	e.Recompute(tasks)

	e.FoldMany([]string{"c1", "t2"})
	e.Recompute(tasks)
	if got := e.DisplayToID(); !reflect.DeepEqual(got, []string{"t1", "c1", "t2"}) {
		t.Fatalf("display = %v, want [t1 c1 t2]", got)
	}
	if e.IsFolded("t1") {
		t.Fatal("t1 should stay unfolded")
	}
}

func TestNearestTaskAtSameLevel(t *testing.T) {
	tasks := []domain.Task{
		makeTask("p", "parent", "", "c1", "c2", "c3"),
		makeTask("c1", "one", "p"),
		makeTask("c2", "two", "p"),
		makeTask("c3", "three", "p"),
		makeTask("q", "next parent", ""),
	}
	e := NewEngine()
	e.Recompute(tasks)

	// Middle subtask prefers its previous sibling.
	if id, ok := e.NearestTaskAtSameLevel(tasks, "c2"); !ok || id != "c1" {
		t.Fatalf("nearest to c2 = (%q, %v), want (c1, true)", id, ok)
	}
	// First subtask falls forward to the next sibling.
	if id, ok := e.NearestTaskAtSameLevel(tasks, "c1"); !ok || id != "c2" {
		t.Fatalf("nearest to c1 = (%q, %v), want (c2, true)", id, ok)
	}
	// Top-level tasks ignore the subtasks between them.
	if id, ok := e.NearestTaskAtSameLevel(tasks, "q"); !ok || id != "p" {
		t.Fatalf("nearest to q = (%q, %v), want (p, true)", id, ok)
	}
	// A lone task has no neighbor.
	lone := []domain.Task{makeTask("solo", "alone", "")}
	e2 := NewEngine()
	e2.Recompute(lone)
	if _, ok := e2.NearestTaskAtSameLevel(lone, "solo"); ok {
		t.Fatal("lone task should have no neighbor")
	}
}

func TestStaleChildIDsAreSkipped(t *testing.T) {
	tasks := []domain.Task{
		makeTask("t1", "parent", "", "ghost", "t2"),
		makeTask("t2", "child", "t1"),
	}
	e := NewEngine()
	e.Recompute(tasks)

	if got := e.DisplayToID(); !reflect.DeepEqual(got, []string{"t1", "t2"}) {
		t.Fatalf("display = %v, want [t1 t2] skipping the stale id", got)
	}
	id, ok := e.TaskIDByPath("1.1", tasks)
	if !ok || id != "t2" {
		t.Fatalf("1.1 = (%q, %v), want (t2, true)", id, ok)
	}
}
