package app

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Brandtweary/cyberorganism/internal/domain"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestService(newFakeRepo())

	parent, _ := src.CreateTask(ctx, "parent", "")
	child, _ := src.AddSubtask(ctx, parent.ID, "child")
	shelved, _ := src.CreateTask(ctx, "later", domain.ContainerShelved)

	var buf bytes.Buffer
	if err := src.ExportSnapshot(ctx, &buf); err != nil {
		t.Fatal(err)
	}

	dstRepo := newFakeRepo()
	dst := newTestService(dstRepo)
	n, err := dst.ImportSnapshot(ctx, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("imported = %d, want 3", n)
	}

	got, err := dst.GetTask(ctx, parent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.ChildIDs) != 1 || got.ChildIDs[0] != child.ID {
		t.Fatalf("parent children = %v, want [%s]", got.ChildIDs, child.ID)
	}
	if got, _ := dst.GetTask(ctx, shelved.ID); got.Container != domain.ContainerShelved {
		t.Fatalf("container = %q, want shelved", got.Container)
	}
}

func TestImportSkipsExistingIDs(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeRepo())
	task, _ := svc.CreateTask(ctx, "original", "")

	var buf bytes.Buffer
	if err := svc.ExportSnapshot(ctx, &buf); err != nil {
		t.Fatal(err)
	}
	n, err := svc.ImportSnapshot(ctx, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("imported = %d, want 0 for duplicate ids", n)
	}
	got, _ := svc.GetTask(ctx, task.ID)
	if got.Content != "original" {
		t.Fatalf("content = %q, want untouched original", got.Content)
	}
}

func TestImportRejectsUnknownVersion(t *testing.T) {
	svc := newTestService(newFakeRepo())
	_, err := svc.ImportSnapshot(context.Background(), strings.NewReader(`{"version":"other.v9","tasks":[]}`))
	if err == nil || !strings.Contains(err.Error(), "unsupported snapshot version") {
		t.Fatalf("err = %v, want unsupported version error", err)
	}
}
