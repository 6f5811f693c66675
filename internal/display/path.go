package display

import (
	"errors"
	"strconv"
	"strings"
)

// TaskIndex is a hierarchical display path such as "1.2.3": the 3rd child of
// the 2nd child of the 1st top-level visible task. Segments are 1-based.
type TaskIndex struct {
	path []int
}

// ParseTaskIndex parses a dot-separated display path. A trailing dot is
// tolerated ("1.2." means "1.2"); empty paths, non-digit segments, and zero
// indices are rejected.
func ParseTaskIndex(s string) (TaskIndex, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if s == "" {
		return TaskIndex{}, errors.New("empty task index")
	}
	segments := strings.Split(s, ".")
	path := make([]int, 0, len(segments))
	for _, segment := range segments {
		n, err := strconv.Atoi(segment)
		if err != nil || n < 0 {
			return TaskIndex{}, errors.New("invalid task index format")
		}
		if n == 0 {
			return TaskIndex{}, errors.New("task indices must be positive")
		}
		path = append(path, n)
	}
	return TaskIndex{path: path}, nil
}

// Path returns the 1-based index segments.
func (ti TaskIndex) Path() []int {
	return ti.path
}

// String renders the path back to dot notation.
func (ti TaskIndex) String() string {
	parts := make([]string, len(ti.path))
	for i, n := range ti.path {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}
