package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Brandtweary/cyberorganism/internal/app"
	"github.com/Brandtweary/cyberorganism/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository persists tasks in a single sqlite table. Insertion order is
// preserved through a monotonic seq column so ListTasks returns tasks in
// creation order regardless of id shape.
type Repository struct {
	db *sql.DB
}

// Open opens the database at path, creating the parent directory and the
// schema as needed.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens an ephemeral database for tests.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the schema. Idempotent.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS tasks (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			content TEXT NOT NULL,
			container TEXT NOT NULL DEFAULT 'taskpad',
			status TEXT NOT NULL DEFAULT 'todo',
			parent_id TEXT NOT NULL DEFAULT '',
			child_ids_json TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_container ON tasks(container);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// CreateTask inserts a task row.
func (r *Repository) CreateTask(ctx context.Context, t domain.Task) error {
	childJSON, err := encodeChildIDs(t.ChildIDs)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tasks(id, content, container, status, parent_id, child_ids_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Content, string(t.Container), string(t.Status), t.ParentID, childJSON, ts(t.CreatedAt), ts(t.UpdatedAt))
	return err
}

// UpdateTask rewrites a task row.
func (r *Repository) UpdateTask(ctx context.Context, t domain.Task) error {
	childJSON, err := encodeChildIDs(t.ChildIDs)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET content = ?, container = ?, status = ?, parent_id = ?, child_ids_json = ?, updated_at = ?
		WHERE id = ?
	`, t.Content, string(t.Container), string(t.Status), t.ParentID, childJSON, ts(t.UpdatedAt), t.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetTask returns a single task by id.
func (r *Repository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, content, container, status, parent_id, child_ids_json, created_at, updated_at
		FROM tasks
		WHERE id = ?
	`, id)
	return scanTask(row)
}

// ListTasks returns all tasks in insertion order.
func (r *Repository) ListTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, content, container, status, parent_id, child_ids_json, created_at, updated_at
		FROM tasks
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// DeleteTask removes a task row.
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

type scanner interface {
	Scan(dest ...any) error
}

// scanTask handles scan task.
func scanTask(s scanner) (domain.Task, error) {
	var (
		t            domain.Task
		containerRaw string
		statusRaw    string
		childrenRaw  string
		createdRaw   string
		updatedRaw   string
	)
	if err := s.Scan(&t.ID, &t.Content, &containerRaw, &statusRaw, &t.ParentID, &childrenRaw, &createdRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, app.ErrNotFound
		}
		return domain.Task{}, err
	}
	t.Container = domain.Container(containerRaw)
	t.Status = domain.Status(statusRaw)
	t.CreatedAt = parseTS(createdRaw)
	t.UpdatedAt = parseTS(updatedRaw)
	if strings.TrimSpace(childrenRaw) == "" {
		childrenRaw = "[]"
	}
	if err := json.Unmarshal([]byte(childrenRaw), &t.ChildIDs); err != nil {
		return domain.Task{}, fmt.Errorf("decode child_ids_json: %w", err)
	}
	if t.Container == "" {
		t.Container = domain.ContainerTaskpad
	}
	if t.Status == "" {
		t.Status = domain.StatusTodo
	}
	return t, nil
}

// encodeChildIDs normalizes a nil slice to a JSON array.
func encodeChildIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode child_ids_json: %w", err)
	}
	return string(raw), nil
}

// translateNoRows maps a zero-row update to app.ErrNotFound.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
