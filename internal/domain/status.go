package domain

// Status tracks whether a task still needs doing.
type Status string

// StatusTodo and StatusDone define the task lifecycle states.
const (
	StatusTodo Status = "todo"
	StatusDone Status = "done"
)

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	return s == StatusTodo || s == StatusDone
}
