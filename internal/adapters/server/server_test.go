package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Brandtweary/cyberorganism/internal/domain"
	"github.com/Brandtweary/cyberorganism/internal/graph"
)

type noopTaskService struct{}

func (noopTaskService) CreateTask(_ context.Context, content string, _ domain.Container) (domain.Task, error) {
	return domain.NewTask(domain.TaskInput{ID: "t1", Content: content}, time.Unix(0, 0))
}

func (noopTaskService) AddSubtask(_ context.Context, _, _ string) (domain.Task, error) {
	return domain.Task{}, nil
}

func (noopTaskService) CompleteTask(_ context.Context, _ string) (domain.Task, error) {
	return domain.Task{}, nil
}

func (noopTaskService) MoveTask(_ context.Context, _ string, _ domain.Container) (domain.Task, error) {
	return domain.Task{}, nil
}

func (noopTaskService) ListTasks(_ context.Context) ([]domain.Task, error) {
	return nil, nil
}

func newTestDeps(t *testing.T) Dependencies {
	t.Helper()
	store, err := graph.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return Dependencies{Graph: store, Tasks: noopTaskService{}}
}

func TestNewHandlerRoutes(t *testing.T) {
	handler, cfg, err := NewHandler(Config{}, newTestDeps(t))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if cfg.Port != 3000 || cfg.MCPEndpoint != "/mcp" {
		t.Fatalf("normalized cfg = %+v", cfg)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/sync/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var status graph.SyncStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode sync status: %v", err)
	}
}

func TestNewHandlerRequiresDependencies(t *testing.T) {
	if _, _, err := NewHandler(Config{}, Dependencies{}); err == nil {
		t.Fatal("expected error without graph datastore")
	}
}

func TestListenFallsForwardWhenPortBusy(t *testing.T) {
	blocker, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = blocker.Close() })
	busyPort := blocker.Addr().(*net.TCPAddr).Port

	ln, err := Listen(Config{Host: "127.0.0.1", Port: busyPort, MaxPortAttempts: 5}, nil)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	gotPort := ln.Addr().(*net.TCPAddr).Port
	if gotPort == busyPort {
		t.Fatalf("bound the busy port %d", busyPort)
	}
	if gotPort < busyPort || gotPort >= busyPort+5 {
		t.Fatalf("port %d outside fallback window starting at %d", gotPort, busyPort)
	}
}

func TestRunShutsDownOnContextCancel(t *testing.T) {
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := probe.Addr().(*net.TCPAddr).Port
	_ = probe.Close()
	deps := newTestDeps(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{Host: "127.0.0.1", Port: port}, deps)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not shut down")
	}
}
