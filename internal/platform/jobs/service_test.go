package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Hugozera/apontamento/internal/domain/attendance"
	"github.com/Hugozera/apontamento/internal/platform/config"
	"github.com/Hugozera/apontamento/internal/platform/metrics"
	"github.com/Hugozera/apontamento/internal/platform/store/memory"
)

type stubReconciler struct {
	calls chan string
	err   error
}

func (s *stubReconciler) Reconcile(_ context.Context, tenantID string, repair bool) (attendance.ReconcileSummary, error) {
	if s.calls != nil {
		s.calls <- tenantID
	}
	return attendance.ReconcileSummary{Tenant: tenantID, Resolved: 3, Mirrored: 2, Missing: []string{"x"}, Repairing: repair}, s.err
}

func TestReconcileNowRecordsRun(t *testing.T) {
	store := memory.New()
	svc := New(store, config.Config{}, &stubReconciler{}, nil)

	summary, err := svc.ReconcileNow(context.Background(), "colinas", true)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if summary.Resolved != 3 || !summary.Repairing {
		t.Fatalf("unexpected summary %+v", summary)
	}

	runs, err := svc.ListRuns(context.Background(), "colinas", JobReconcile, 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != RunStatusCompleted || runs[0].CompletedAt == nil || len(runs[0].Details) == 0 {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestFailedRunIsCounted(t *testing.T) {
	collector := metrics.New()
	svc := New(memory.New(), config.Config{}, &stubReconciler{err: errors.New("store down")}, nil)
	svc.Failures = collector

	if _, err := svc.ReconcileNow(context.Background(), "", false); err == nil {
		t.Fatal("expected error")
	}
	runs, err := svc.ListRuns(context.Background(), "", "", 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != RunStatusFailed {
		t.Fatalf("unexpected runs %+v", runs)
	}
	if got := collector.Snapshot()["jobFailuresTotal"].(uint64); got != 1 {
		t.Fatalf("expected one job failure, got %d", got)
	}
}

func TestWorkerRunsQueuedReconcilePerTenant(t *testing.T) {
	reconciler := &stubReconciler{calls: make(chan string, 4)}
	svc := New(memory.New(), config.Config{}, reconciler, func() []string { return []string{"default", "colinas"} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	if queued := svc.enqueueReconcileAll(); queued != 2 {
		t.Fatalf("expected two queued jobs, got %d", queued)
	}
	seen := map[string]bool{}
	for len(seen) < 2 {
		select {
		case tenantID := <-reconciler.calls:
			seen[tenantID] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("worker did not run queued jobs, saw %v", seen)
		}
	}
}
