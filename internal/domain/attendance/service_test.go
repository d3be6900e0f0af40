package attendance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Hugozera/apontamento/internal/domain/records"
	"github.com/Hugozera/apontamento/internal/domain/tenant"
	"github.com/Hugozera/apontamento/internal/platform/store/memory"
)

var fixedNow = time.Date(2024, 12, 10, 12, 0, 0, 0, time.UTC)

type countingStore struct {
	records.Store
	writes int32
	reads  int32
}

func (c *countingStore) Insert(ctx context.Context, partition string, fields records.Fields) (string, error) {
	atomic.AddInt32(&c.writes, 1)
	return c.Store.Insert(ctx, partition, fields)
}

func (c *countingStore) Update(ctx context.Context, partition, id string, fields records.Fields) error {
	atomic.AddInt32(&c.writes, 1)
	return c.Store.Update(ctx, partition, id, fields)
}

func (c *countingStore) Get(ctx context.Context, partition, id string) (records.Fields, error) {
	atomic.AddInt32(&c.reads, 1)
	return c.Store.Get(ctx, partition, id)
}

func (c *countingStore) Writes() int {
	return int(atomic.LoadInt32(&c.writes))
}

// failingInsertStore fails inserts into partitions with the given prefix.
type failingInsertStore struct {
	records.Store
	prefix string
}

func (f *failingInsertStore) Insert(ctx context.Context, partition string, fields records.Fields) (string, error) {
	if strings.HasPrefix(partition, f.prefix) {
		return "", errors.New("write quota exceeded")
	}
	return f.Store.Insert(ctx, partition, fields)
}

type blockingStore struct {
	records.Store
	release chan struct{}
}

func (b *blockingStore) Insert(ctx context.Context, partition string, fields records.Fields) (string, error) {
	<-b.release
	return b.Store.Insert(ctx, partition, fields)
}

type countingObserver struct{ n int32 }

func (o *countingObserver) RecordMirrorFailure() { atomic.AddInt32(&o.n, 1) }

type reverseSealer struct{}

func (reverseSealer) SealString(value string) (string, error) {
	return "sealed:" + reverse(value), nil
}

func (reverseSealer) OpenString(value string) (string, error) {
	if !strings.HasPrefix(value, "sealed:") {
		return "", errors.New("not sealed")
	}
	return reverse(strings.TrimPrefix(value, "sealed:")), nil
}

func reverse(value string) string {
	runes := []rune(value)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

type staticDirectory map[string]string

func (d staticDirectory) HomeSite(_ context.Context, employeeID string) (string, bool, error) {
	site, ok := d[employeeID]
	return site, ok, nil
}

// slowDirectory answers after delay unless ctx ends first.
type slowDirectory struct {
	delay time.Duration
}

func (d slowDirectory) HomeSite(ctx context.Context, _ string) (string, bool, error) {
	select {
	case <-time.After(d.delay):
		return "colinas25", true, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// delayedStore holds inserts for delay before writing them.
type delayedStore struct {
	records.Store
	delay time.Duration
}

func (d *delayedStore) Insert(ctx context.Context, partition string, fields records.Fields) (string, error) {
	time.Sleep(d.delay)
	return d.Store.Insert(ctx, partition, fields)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return &buf
}

func newTestService(store records.Store) *Service {
	svc := NewService(store, tenant.NewRouter(nil))
	svc.Now = func() time.Time { return fixedNow }
	return svc
}

func submit(t *testing.T, svc *Service, tenantID, employeeID string) string {
	t.Helper()
	res, err := svc.Submit(context.Background(), tenantID, SubmitInput{
		EmployeeID:   employeeID,
		EmployeeName: "Employee " + employeeID,
		ClockTime:    "2024-12-10T08:15:30.000Z",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return res.ID
}

func pendingIDs(t *testing.T, svc *Service, tenantID string) map[string]bool {
	t.Helper()
	pending, err := svc.ListPending(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	out := map[string]bool{}
	for _, rec := range pending {
		out[rec.ID] = true
	}
	return out
}

func TestSubmitListApproveLifecycle(t *testing.T) {
	svc := newTestService(memory.New())

	res, err := svc.Submit(context.Background(), "colinas", SubmitInput{EmployeeID: "e1", EmployeeName: "Ana"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Tenant != "colinas" || !strings.Contains(res.Message, "colinas") {
		t.Fatalf("expected tenant in confirmation, got %+v", res)
	}
	if !pendingIDs(t, svc, "colinas")[res.ID] {
		t.Fatal("submitted record must be pending")
	}

	out, err := svc.Approve(context.Background(), "colinas", res.ID, "supervisor")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if out.Status != StatusApproved || out.MirrorFailed() || out.FinalizedID == "" {
		t.Fatalf("unexpected resolve result %+v", out)
	}
	if pendingIDs(t, svc, "colinas")[res.ID] {
		t.Fatal("approved record must leave the pending list")
	}

	rec, err := svc.Get(context.Background(), "colinas", res.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != StatusApproved || rec.ResolvedBy != "supervisor" || rec.ResolvedAt == nil || !rec.ResolvedAt.Equal(fixedNow) {
		t.Fatalf("resolution metadata not stored: %+v", rec)
	}
}

func TestSubmitDefaultsTenantAndValidates(t *testing.T) {
	store := memory.New()
	svc := newTestService(store)

	if _, err := svc.Submit(context.Background(), "  ", SubmitInput{EmployeeID: " "}); records.KindOf(err) != records.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	res, err := svc.Submit(context.Background(), "", SubmitInput{EmployeeID: "e1"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Tenant != tenant.Default {
		t.Fatalf("expected default tenant, got %q", res.Tenant)
	}
	if _, err := store.Get(context.Background(), "pontos", res.ID); err != nil {
		t.Fatalf("expected record in default partition: %v", err)
	}
}

func TestSubmitClockTimeParsing(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"utc millis", "2024-12-10T08:15:30.000Z", time.Date(2024, 12, 10, 8, 15, 30, 0, time.UTC)},
		{"offset normalized", "2024-12-10T05:15:30-03:00", time.Date(2024, 12, 10, 8, 15, 30, 0, time.UTC)},
		{"blank falls back", "", fixedNow},
		{"garbage falls back", "10/12/2024 08:15", fixedNow},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			store := memory.New()
			svc := newTestService(store)
			res, err := svc.Submit(context.Background(), "", SubmitInput{EmployeeID: "e1", ClockTime: tc.raw})
			if err != nil {
				t.Fatalf("submit must not fail on clock parsing: %v", err)
			}
			fields, err := store.Get(context.Background(), "pontos", res.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			got, ok := fields.Time(FieldClockTime)
			if !ok || !got.Equal(tc.want) {
				t.Fatalf("expected %s, got %v", tc.want, fields[FieldClockTime])
			}
			if fields.Has(FieldStatus) {
				t.Fatal("submitted record must not carry a status")
			}
		})
	}
}

func TestSubmitTimesOut(t *testing.T) {
	store := &blockingStore{Store: memory.New(), release: make(chan struct{})}
	defer close(store.release)
	svc := newTestService(store)
	svc.SubmitTimeout = 20 * time.Millisecond

	_, err := svc.Submit(context.Background(), "", SubmitInput{EmployeeID: "e1"})
	if records.KindOf(err) != records.KindTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
	if !records.Retryable(err) {
		t.Fatal("timeouts must be reported as retryable")
	}
}

func TestTimedOutSubmitStillLands(t *testing.T) {
	base := memory.New()
	svc := newTestService(&delayedStore{Store: base, delay: 80 * time.Millisecond})
	svc.SubmitTimeout = 20 * time.Millisecond

	_, err := svc.Submit(context.Background(), "colinas", SubmitInput{EmployeeID: "e1"})
	if records.KindOf(err) != records.KindTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		docs, err := base.ListAll(context.Background(), "pontosCoLinas")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(docs) == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected the slow write to land, found %d documents", len(docs))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSlowDirectoryDoesNotBlockSubmit(t *testing.T) {
	store := memory.New()
	svc := newTestService(store)
	svc.SubmitTimeout = 50 * time.Millisecond
	svc.DirectoryTimeout = 20 * time.Millisecond
	svc.Directory = slowDirectory{delay: 200 * time.Millisecond}

	start := time.Now()
	res, err := svc.Submit(context.Background(), "colinas", SubmitInput{EmployeeID: "e1"})
	if err != nil {
		t.Fatalf("slow directory must not fail submit: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Fatalf("directory lookup was not bounded, submit took %s", elapsed)
	}
	docs, err := store.ListAll(context.Background(), "pontosCoLinas")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != res.ID {
		t.Fatalf("expected the clock event stored, got %v", docs)
	}
}

func TestSubmitLogsSiteWarnings(t *testing.T) {
	logs := captureLogs(t)
	svc := newTestService(memory.New())

	if _, err := svc.Submit(context.Background(), "colinas", SubmitInput{EmployeeID: "e1", Site: "colinas25"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !strings.Contains(logs.String(), "clock-in site differs from requested tenant") {
		t.Fatalf("expected site warning, got %q", logs.String())
	}

	logs.Reset()
	if _, err := svc.Submit(context.Background(), "Colinas", SubmitInput{EmployeeID: "e1", Site: "colinas"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if logs.Len() != 0 {
		t.Fatalf("matching site must not warn, got %q", logs.String())
	}

	if _, err := svc.Submit(context.Background(), "praia", SubmitInput{EmployeeID: "e1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !strings.Contains(logs.String(), "clock-in for tenant without its own partitions") {
		t.Fatalf("expected unknown tenant warning, got %q", logs.String())
	}
}

func TestResolveUnknownIDWritesNothing(t *testing.T) {
	store := &countingStore{Store: memory.New()}
	svc := newTestService(store)

	_, err := svc.Approve(context.Background(), "colinas", "missing-id", "supervisor")
	if !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if store.Writes() != 0 {
		t.Fatalf("expected zero writes, got %d", store.Writes())
	}
}

func TestResolveValidation(t *testing.T) {
	store := &countingStore{Store: memory.New()}
	svc := newTestService(store)
	id := submit(t, svc, "", "e1")
	before := store.Writes()

	cases := []struct {
		name   string
		status Status
		extras Extras
	}{
		{"reject without justification", StatusRejected, Extras{Actor: "sup"}},
		{"missing actor", StatusApproved, Extras{}},
		{"pending is not a decision", StatusPending, Extras{Actor: "sup"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Resolve(context.Background(), "", id, tc.status, tc.extras); records.KindOf(err) != records.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if store.Writes() != before {
		t.Fatalf("validation failures must not write, got %d writes", store.Writes()-before)
	}
}

func TestRejectWritesJustificationAndMirror(t *testing.T) {
	store := memory.New()
	svc := newTestService(store)
	id := submit(t, svc, "colinas25", "e7")

	out, err := svc.Reject(context.Background(), "colinas25", id, "supervisor", "photo unreadable")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}

	fields, err := store.Get(context.Background(), "pontosCoLinas25", id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fields.String(FieldStatus) != string(StatusRejected) || fields.String(FieldRejectedBy) != "supervisor" || fields.String(FieldJustification) != "photo unreadable" {
		t.Fatalf("unexpected canonical record %#v", fields)
	}
	if fields.Has(FieldApprovedAt) {
		t.Fatal("rejection must not set approval timestamp")
	}

	mirror, err := store.Get(context.Background(), "pontosFfetivadosCoLinas25", out.FinalizedID)
	if err != nil {
		t.Fatalf("get mirror: %v", err)
	}
	finalized := FinalizedFromDocument(out.FinalizedID, mirror)
	if finalized.RecordID != id || finalized.Status != StatusRejected || finalized.EmployeeID != "e7" || finalized.ClockTime != "08:15:30" {
		t.Fatalf("unexpected finalized copy %+v", finalized)
	}
	if finalized.FinalizedAt == nil || finalized.ResolvedBy != "supervisor" {
		t.Fatalf("finalized copy missing resolution data %+v", finalized)
	}
}

func TestResolveMirrorFailureIsReportedNotFatal(t *testing.T) {
	base := memory.New()
	store := &failingInsertStore{Store: base, prefix: "pontosFfetivados"}
	observer := &countingObserver{}
	svc := newTestService(store)
	svc.Observer = observer
	id := submit(t, svc, "", "e1")

	out, err := svc.Approve(context.Background(), "", id, "supervisor")
	if err != nil {
		t.Fatalf("mirror failure must not fail resolve: %v", err)
	}
	if !out.MirrorFailed() || out.FinalizedID != "" {
		t.Fatalf("expected mirror failure in result, got %+v", out)
	}
	if atomic.LoadInt32(&observer.n) != 1 {
		t.Fatalf("expected observer to be told once, got %d", observer.n)
	}
	fields, err := base.Get(context.Background(), "pontos", id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fields.String(FieldStatus) != string(StatusApproved) {
		t.Fatal("canonical record must be updated even when the mirror fails")
	}
}

func TestResolveTwiceIsLastWriteWinsByDefault(t *testing.T) {
	store := memory.New()
	svc := newTestService(store)
	id := submit(t, svc, "", "e1")

	if _, err := svc.Approve(context.Background(), "", id, "first"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.Reject(context.Background(), "", id, "second", "duplicate"); err != nil {
		t.Fatalf("second resolve must be accepted without the pending guard: %v", err)
	}
	mirrors, err := store.ListAll(context.Background(), "pontosFfetivados")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mirrors) != 2 {
		t.Fatalf("expected a finalized copy per resolution, got %d", len(mirrors))
	}
}

func TestResolveRequirePendingGuard(t *testing.T) {
	store := memory.New()
	svc := newTestService(store)
	svc.RequirePending = true
	id := submit(t, svc, "", "e1")

	if _, err := svc.Approve(context.Background(), "", id, "first"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.Approve(context.Background(), "", id, "second"); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected not found for resolved record, got %v", err)
	}
}

func TestListPendingTreatsExplicitPendingAsPending(t *testing.T) {
	store := memory.New()
	svc := newTestService(store)
	legacy, err := store.Insert(context.Background(), "pontos", records.Fields{FieldEmployeeID: "e1", FieldStatus: string(StatusPending)})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	done, err := store.Insert(context.Background(), "pontos", records.Fields{FieldEmployeeID: "e2", FieldStatus: string(StatusRejected)})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	ids := pendingIDs(t, svc, "")
	if !ids[legacy] || ids[done] {
		t.Fatalf("unexpected pending set %v", ids)
	}
}

func TestListPendingExcludesUnknownStatus(t *testing.T) {
	store := memory.New()
	svc := newTestService(store)
	blank, err := store.Insert(context.Background(), "pontos", records.Fields{FieldEmployeeID: "e1", FieldStatus: ""})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	cancelled, err := store.Insert(context.Background(), "pontos", records.Fields{FieldEmployeeID: "e2", FieldStatus: "Cancelado"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	ids := pendingIDs(t, svc, "")
	if !ids[blank] || ids[cancelled] || len(ids) != 1 {
		t.Fatalf("unexpected pending set %v", ids)
	}
}

func TestFileAbsence(t *testing.T) {
	store := &countingStore{Store: memory.New()}
	svc := newTestService(store)

	cases := []struct {
		name string
		kind AbsenceKind
		in   AbsenceInput
		want records.Kind
	}{
		{"empty justification", AbsenceKindAbsence, AbsenceInput{EmployeeID: "e1", Justification: "  "}, records.KindValidation},
		{"missing employee", AbsenceKindExcused, AbsenceInput{Justification: "medical"}, records.KindValidation},
		{"unknown kind", AbsenceKind("Ferias"), AbsenceInput{EmployeeID: "e1", Justification: "x"}, records.KindValidation},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.FileAbsence(context.Background(), "colinas", tc.kind, tc.in); records.KindOf(err) != tc.want {
				t.Fatalf("expected %s, got %v", tc.want, err)
			}
		})
	}
	if store.Writes() != 0 {
		t.Fatalf("invalid filings must not write, got %d", store.Writes())
	}

	rec, err := svc.FileAbsence(context.Background(), "colinas", AbsenceKindExcused, AbsenceInput{
		RecordID:      "not-a-real-record",
		EmployeeID:    "e1",
		RecordedBy:    "sup",
		RecorderRole:  "supervisor",
		Justification: "medical certificate",
	})
	if err != nil {
		t.Fatalf("file excused: %v", err)
	}
	fields, err := store.Get(context.Background(), "abonosCoLinas", rec.ID)
	if err != nil {
		t.Fatalf("expected excused absence partition: %v", err)
	}
	if fields.String(FieldStatus) != string(AbsenceKindExcused) || fields.String(FieldRecordID) != "not-a-real-record" || fields.String(FieldRole) != "supervisor" {
		t.Fatalf("unexpected absence fields %#v", fields)
	}

	rec, err = svc.FileAbsence(context.Background(), "colinas", AbsenceKindAbsence, AbsenceInput{EmployeeID: "e1", Justification: "no show"})
	if err != nil {
		t.Fatalf("file absence: %v", err)
	}
	if _, err := store.Get(context.Background(), "faltasCoLinas", rec.ID); err != nil {
		t.Fatalf("expected absence partition: %v", err)
	}
}

func TestConcurrentSubmitsAreIsolatedPerTenant(t *testing.T) {
	svc := newTestService(memory.New())
	const perTenant = 20

	var wg sync.WaitGroup
	var mu sync.Mutex
	ids := map[string]string{}
	errs := make(chan error, perTenant*2)
	for _, tenantID := range []string{"colinas", "colinas25"} {
		for i := 0; i < perTenant; i++ {
			wg.Add(1)
			go func(tenantID string, i int) {
				defer wg.Done()
				res, err := svc.Submit(context.Background(), tenantID, SubmitInput{EmployeeID: fmt.Sprintf("%s-%d", tenantID, i)})
				if err != nil {
					errs <- err
					return
				}
				mu.Lock()
				defer mu.Unlock()
				if _, dup := ids[res.ID]; dup {
					errs <- fmt.Errorf("duplicate id %s", res.ID)
					return
				}
				ids[res.ID] = tenantID
			}(tenantID, i)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	pendingA, err := svc.ListPending(context.Background(), "colinas")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pendingA) != perTenant {
		t.Fatalf("expected %d pending for colinas, got %d", perTenant, len(pendingA))
	}
	for _, rec := range pendingA {
		if ids[rec.ID] != "colinas" || !strings.HasPrefix(rec.EmployeeID, "colinas-") {
			t.Fatalf("record %s from another tenant leaked into colinas", rec.ID)
		}
	}
}

func TestPasswordEchoIsSealedAtRest(t *testing.T) {
	store := memory.New()
	svc := newTestService(store)
	svc.Sealer = reverseSealer{}

	res, err := svc.Submit(context.Background(), "", SubmitInput{EmployeeID: "e1", PasswordEcho: "1234"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	raw, err := store.Get(context.Background(), "pontos", res.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if raw.String(FieldPasswordEcho) != "sealed:4321" {
		t.Fatalf("expected sealed value at rest, got %q", raw.String(FieldPasswordEcho))
	}
	rec, err := svc.Get(context.Background(), "", res.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.PasswordEcho != "1234" {
		t.Fatalf("expected opened value, got %q", rec.PasswordEcho)
	}
	pending, err := svc.ListPending(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 || pending[0].PasswordEcho != "" {
		t.Fatal("pending list must not expose the password echo")
	}
}

func TestHomeSiteMismatchDoesNotBlock(t *testing.T) {
	svc := newTestService(memory.New())
	svc.Directory = staticDirectory{"e1": "colinas25"}

	if _, err := svc.Submit(context.Background(), "colinas", SubmitInput{EmployeeID: "e1"}); err != nil {
		t.Fatalf("site mismatch must not block submit: %v", err)
	}
}

func TestReconcileFindsAndRepairsMissingCopies(t *testing.T) {
	base := memory.New()
	failing := &failingInsertStore{Store: base, prefix: "pontosFfetivados"}
	svc := newTestService(failing)

	first := submit(t, svc, "", "e1")
	second := submit(t, svc, "", "e2")
	submit(t, svc, "", "e3")
	if _, err := svc.Approve(context.Background(), "", first, "sup"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	svc.Store = base
	if _, err := svc.Approve(context.Background(), "", second, "sup"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	summary, err := svc.Reconcile(context.Background(), "", false)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if summary.Resolved != 2 || summary.Mirrored != 1 || len(summary.Missing) != 1 || summary.Missing[0] != first || summary.Repaired != 0 {
		t.Fatalf("unexpected dry-run summary %+v", summary)
	}

	summary, err = svc.Reconcile(context.Background(), "", true)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if summary.Repaired != 1 {
		t.Fatalf("expected one repair, got %+v", summary)
	}
	docs, err := base.QueryEquals(context.Background(), "pontosFfetivados", FieldRecordID, first)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(docs) != 1 || docs[0].Fields.String(FieldApprovedBy) != "sup" {
		t.Fatalf("expected repaired copy, got %#v", docs)
	}
}
