package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Brandtweary/cyberorganism/internal/domain"
)

// SnapshotVersion identifies the export format.
const SnapshotVersion = "cyberorganism.snapshot.v1"

// Snapshot is the portable JSON form of the full task set.
type Snapshot struct {
	Version    string         `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Tasks      []SnapshotTask `json:"tasks"`
}

// SnapshotTask mirrors domain.Task with stable JSON field names.
type SnapshotTask struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Container string    `json:"container"`
	Status    string    `json:"status"`
	ParentID  string    `json:"parent_id,omitempty"`
	ChildIDs  []string  `json:"child_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExportSnapshot writes the full task set as JSON.
func (s *Service) ExportSnapshot(ctx context.Context, w io.Writer) error {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}

	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock(),
		Tasks:      make([]SnapshotTask, 0, len(tasks)),
	}
	for _, t := range tasks {
		snap.Tasks = append(snap.Tasks, SnapshotTask{
			ID:        t.ID,
			Content:   t.Content,
			Container: string(t.Container),
			Status:    string(t.Status),
			ParentID:  t.ParentID,
			ChildIDs:  t.ChildIDs,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// ImportSnapshot loads tasks from a snapshot, skipping ids that already
// exist. It returns the number of tasks imported.
func (s *Service) ImportSnapshot(ctx context.Context, r io.Reader) (int, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return 0, fmt.Errorf("unsupported snapshot version %q", snap.Version)
	}

	existing, err := s.repo.ListTasks(ctx)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		seen[t.ID] = struct{}{}
	}

	imported := 0
	for _, st := range snap.Tasks {
		if _, ok := seen[st.ID]; ok {
			continue
		}
		container := domain.Container(st.Container)
		if !container.Valid() {
			return imported, fmt.Errorf("task %s: %w", st.ID, domain.ErrInvalidContainer)
		}
		status := domain.Status(st.Status)
		if !status.Valid() {
			return imported, fmt.Errorf("task %s: %w", st.ID, domain.ErrInvalidStatus)
		}
		task := domain.Task{
			ID:        st.ID,
			Content:   st.Content,
			Container: container,
			Status:    status,
			ParentID:  st.ParentID,
			ChildIDs:  st.ChildIDs,
			CreatedAt: st.CreatedAt,
			UpdatedAt: st.UpdatedAt,
		}
		if err := s.repo.CreateTask(ctx, task); err != nil {
			return imported, fmt.Errorf("import task %s: %w", st.ID, err)
		}
		seen[task.ID] = struct{}{}
		imported++
	}
	return imported, nil
}
