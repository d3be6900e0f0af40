package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/Hugozera/apontamento/internal/domain/attendance"
	"github.com/Hugozera/apontamento/internal/domain/records"
	"github.com/Hugozera/apontamento/internal/platform/config"
)

const JobReconcile = "finalized_reconcile"

// RunsPartition holds job run history.
const RunsPartition = "execucoes"

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

type Reconciler interface {
	Reconcile(ctx context.Context, tenantID string, repair bool) (attendance.ReconcileSummary, error)
}

type FailureRecorder interface {
	RecordJobFailure()
}

type Service struct {
	Store      records.Store
	Cfg        config.Config
	Reconciler Reconciler
	Tenants    func() []string
	Failures   FailureRecorder
	queue      chan job
}

type job struct {
	Type     string
	TenantID string
	Run      func(context.Context) (any, error)
}

type Run struct {
	ID          string          `json:"id"`
	Tenant      string          `json:"tenant"`
	JobType     string          `json:"jobType"`
	Status      string          `json:"status"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
}

func New(store records.Store, cfg config.Config, reconciler Reconciler, tenants func() []string) *Service {
	return &Service{
		Store:      store,
		Cfg:        cfg,
		Reconciler: reconciler,
		Tenants:    tenants,
		queue:      make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.ReconcileInterval > 0 && s.Reconciler != nil {
		go s.scheduleReconcile(ctx, s.Cfg.ReconcileInterval)
	}
}

func (s *Service) Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) bool {
	select {
	case s.queue <- job{Type: jobType, TenantID: tenantID, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenant", tenantID)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, TenantID: tenantID, Run: run})
}

// ReconcileNow runs a reconciliation for one tenant synchronously.
func (s *Service) ReconcileNow(ctx context.Context, tenantID string, repair bool) (attendance.ReconcileSummary, error) {
	var summary attendance.ReconcileSummary
	_, err := s.RunNow(ctx, JobReconcile, tenantID, func(ctx context.Context) (any, error) {
		var err error
		summary, err = s.Reconciler.Reconcile(ctx, tenantID, repair)
		return summary, err
	})
	return summary, err
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "tenant", j.TenantID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID, err := s.Store.Insert(ctx, RunsPartition, records.Fields{
		"tenant":    j.TenantID,
		"jobType":   j.Type,
		"status":    RunStatusRunning,
		"startedAt": time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, runErr := j.Run(ctx)
	status := RunStatusCompleted
	if runErr != nil {
		status = RunStatusFailed
		if s.Failures != nil {
			s.Failures.RecordJobFailure()
		}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.Store.Update(ctx, RunsPartition, runID, records.Fields{
			"status":      status,
			"details":     string(detailsJSON),
			"completedAt": time.Now().UTC(),
		}); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, runErr
}

func (s *Service) scheduleReconcile(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueueReconcileAll()
		}
	}
}

func (s *Service) enqueueReconcileAll() int {
	if s.Tenants == nil {
		return 0
	}
	queued := 0
	for _, tenantID := range s.Tenants() {
		tenantID := tenantID
		ok := s.Enqueue(JobReconcile, tenantID, func(ctx context.Context) (any, error) {
			summary, err := s.Reconciler.Reconcile(ctx, tenantID, s.Cfg.ReconcileRepair)
			if err == nil && len(summary.Missing) > 0 {
				slog.Warn("finalized copies missing",
					"tenant", tenantID,
					"missing", len(summary.Missing),
					"repaired", summary.Repaired,
				)
			}
			return summary, err
		})
		if ok {
			queued++
		}
	}
	return queued
}

// ListRuns returns the tenant's job runs, newest first.
func (s *Service) ListRuns(ctx context.Context, tenantID, jobType string, limit int) ([]Run, error) {
	docs, err := s.Store.QueryEquals(ctx, RunsPartition, "tenant", tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]Run, 0, len(docs))
	for _, doc := range docs {
		run := Run{
			ID:      doc.ID,
			Tenant:  doc.Fields.String("tenant"),
			JobType: doc.Fields.String("jobType"),
			Status:  doc.Fields.String("status"),
		}
		if jobType != "" && run.JobType != jobType {
			continue
		}
		if at, ok := doc.Fields.Time("startedAt"); ok {
			run.StartedAt = at
		}
		if at, ok := doc.Fields.Time("completedAt"); ok {
			run.CompletedAt = &at
		}
		if details := doc.Fields.String("details"); details != "" && json.Valid([]byte(details)) {
			run.Details = json.RawMessage(details)
		}
		out = append(out, run)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
