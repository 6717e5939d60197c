package history

import (
	"context"
	"path/filepath"
	"testing"

	"sourcescan/internal/config"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.StartRun(ctx, "/tmp/in.csv", "/tmp/out.csv")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	run, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if run == nil || run.Status != RunRunning {
		t.Fatalf("fresh run: %+v", run)
	}
	if run.StartedAt.IsZero() {
		t.Error("started_at not recorded")
	}
	if !run.FinishedAt.IsZero() {
		t.Error("finished_at set on a running run")
	}

	if err := store.SetIdentifiers(ctx, id, "u-1", "s-1"); err != nil {
		t.Fatalf("SetIdentifiers: %v", err)
	}
	if err := store.Complete(ctx, id); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	run, err = store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID after complete: %v", err)
	}
	if run.Status != RunCompleted || run.UploadID != "u-1" || run.ScanID != "s-1" {
		t.Errorf("completed run: %+v", run)
	}
	if run.FinishedAt.IsZero() {
		t.Error("finished_at missing after completion")
	}
	if run.ErrorMessage != "" {
		t.Errorf("unexpected error message %q", run.ErrorMessage)
	}
}

func TestFailRecordsMessage(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.StartRun(ctx, "in.csv", "out.csv")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := store.Fail(ctx, id, "scan 9 failed: status=error"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	run, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if run.Status != RunFailed || run.ErrorMessage != "scan 9 failed: status=error" {
		t.Errorf("failed run: %+v", run)
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.StartRun(ctx, "in.csv", "out.csv"); err != nil {
			t.Fatalf("StartRun: %v", err)
		}
	}

	runs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID <= runs[1].ID {
		t.Errorf("not newest first: %d then %d", runs[0].ID, runs[1].ID)
	}

	if missing, err := store.GetByID(ctx, 999); err != nil || missing != nil {
		t.Errorf("missing run: %v, %v", missing, err)
	}
}
