package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Hugozera/apontamento/internal/domain/records"
	"github.com/Hugozera/apontamento/internal/domain/tenant"
)

// Sealer protects the legacy password echo at rest.
type Sealer interface {
	SealString(value string) (string, error)
	OpenString(value string) (string, error)
}

// Directory looks up an employee's home site.
type Directory interface {
	HomeSite(ctx context.Context, employeeID string) (site string, found bool, err error)
}

// MirrorObserver is told about finalized-copy write failures.
type MirrorObserver interface {
	RecordMirrorFailure()
}

// Service runs the clock-in review workflow. It holds no per-request state;
// concurrent calls share only the injected collaborators.
type Service struct {
	Store     records.Store
	Router    *tenant.Router
	Sealer    Sealer
	Directory Directory
	Observer  MirrorObserver
	// SubmitTimeout bounds Submit. StoreTimeout bounds every other store call;
	// zero means wait as long as the store takes.
	SubmitTimeout time.Duration
	StoreTimeout  time.Duration
	// DirectoryTimeout bounds the home-site lookup that follows a submit.
	DirectoryTimeout time.Duration
	// RequirePending makes Resolve refuse records that already carry a
	// decision. The check and the update are separate store calls.
	RequirePending bool
	Now            func() time.Time
}

func NewService(store records.Store, router *tenant.Router) *Service {
	if router == nil {
		router = tenant.NewRouter(nil)
	}
	return &Service{
		Store:         store,
		Router:        router,
		SubmitTimeout: DefaultSubmitTimeout,
		Now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Submit(ctx context.Context, tenantID string, in SubmitInput) (SubmitResult, error) {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return SubmitResult{}, records.Invalid(FieldEmployeeID, "is required")
	}
	tenantID = tenant.Normalize(tenantID)
	now := s.now()

	password := in.PasswordEcho
	if s.Sealer != nil && password != "" {
		sealed, err := s.Sealer.SealString(password)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("seal password echo: %w", err)
		}
		password = sealed
	}

	fields := records.Fields{
		FieldEmployeeID:   strings.TrimSpace(in.EmployeeID),
		FieldEmployeeName: in.EmployeeName,
		FieldClockTime:    ParseClockTime(in.ClockTime, now),
		FieldPhoto:        in.Photo,
		FieldPasswordEcho: password,
		FieldSite:         tenantID,
		FieldCreatedAt:    now,
	}
	partition := s.Router.Resolve(tenant.ClockEvents, tenantID)

	var id string
	err := records.Await(ctx, s.submitTimeout(), func(ctx context.Context) error {
		inserted, err := s.Store.Insert(ctx, partition, fields)
		if err != nil {
			return err
		}
		id = inserted
		return nil
	})
	if err != nil {
		return SubmitResult{}, records.Wrap("submit clock event", err)
	}
	s.checkSite(ctx, fields.String(FieldEmployeeID), tenantID, in.Site)

	return SubmitResult{
		ID:      id,
		Tenant:  tenantID,
		Message: fmt.Sprintf("clock event recorded at site %s, awaiting validation", tenantID),
	}, nil
}

// ListPending returns records of tenantID without a decision, in no
// particular order.
func (s *Service) ListPending(ctx context.Context, tenantID string) ([]AttendanceRecord, error) {
	partition := s.Router.Resolve(tenant.ClockEvents, tenant.Normalize(tenantID))

	var docs []records.Document
	err := records.Await(ctx, s.StoreTimeout, func(ctx context.Context) error {
		var err error
		docs, err = s.Store.ListAll(ctx, partition)
		return err
	})
	if err != nil {
		return nil, records.Wrap("list pending", err)
	}

	out := make([]AttendanceRecord, 0, len(docs))
	for _, doc := range docs {
		rec := recordFromDocument(doc.ID, doc.Fields)
		if !rec.Pending() {
			continue
		}
		rec.PasswordEcho = ""
		out = append(out, rec)
	}
	return out, nil
}

// Get returns one record with the password echo opened.
func (s *Service) Get(ctx context.Context, tenantID, id string) (AttendanceRecord, error) {
	fields, err := s.load(ctx, tenant.Normalize(tenantID), id)
	if err != nil {
		return AttendanceRecord{}, err
	}
	rec := recordFromDocument(id, fields)
	if s.Sealer != nil && rec.PasswordEcho != "" {
		plain, err := s.Sealer.OpenString(rec.PasswordEcho)
		if err != nil {
			slog.Warn("password echo open failed", "recordId", id, "err", err)
		} else {
			rec.PasswordEcho = plain
		}
	}
	return rec, nil
}

func (s *Service) Approve(ctx context.Context, tenantID, id, actor string) (ResolveResult, error) {
	return s.Resolve(ctx, tenantID, id, StatusApproved, Extras{Actor: actor})
}

func (s *Service) Reject(ctx context.Context, tenantID, id, actor, justification string) (ResolveResult, error) {
	return s.Resolve(ctx, tenantID, id, StatusRejected, Extras{Actor: actor, Justification: justification})
}

// Resolve records a supervisor decision on a clock event and then writes the
// finalized copy. A failed copy does not fail the call; it is reported in
// ResolveResult.MirrorErr.
func (s *Service) Resolve(ctx context.Context, tenantID, id string, status Status, extras Extras) (ResolveResult, error) {
	if err := validateResolution(id, status, extras); err != nil {
		return ResolveResult{}, err
	}
	tenantID = tenant.Normalize(tenantID)

	current, err := s.load(ctx, tenantID, id)
	if err != nil {
		return ResolveResult{}, err
	}
	if s.RequirePending && Status(current.String(FieldStatus)).Terminal() {
		return ResolveResult{}, fmt.Errorf("%w: clock event %s already resolved", records.ErrNotFound, id)
	}

	at := extras.ResolvedAt
	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()
	update := extras.fields(status, at)

	partition := s.Router.Resolve(tenant.ClockEvents, tenantID)
	err = records.Await(ctx, s.StoreTimeout, func(ctx context.Context) error {
		return s.Store.Update(ctx, partition, id, update)
	})
	if err != nil {
		return ResolveResult{}, records.Wrap("resolve clock event", err)
	}

	result := ResolveResult{ID: id, Status: status, Message: resolveMessage(status)}
	result.FinalizedID, result.MirrorErr = s.writeMirror(ctx, tenantID, id, current, update)
	if result.MirrorErr != nil {
		slog.Warn("finalized copy write failed",
			"tenant", tenantID,
			"recordId", id,
			"status", string(status),
			"err", result.MirrorErr,
		)
		if s.Observer != nil {
			s.Observer.RecordMirrorFailure()
		}
	}
	return result, nil
}

func (s *Service) FileAbsence(ctx context.Context, tenantID string, kind AbsenceKind, in AbsenceInput) (AbsenceRecord, error) {
	partitionKind, ok := absencePartition(kind)
	if !ok {
		return AbsenceRecord{}, records.Invalid(FieldStatus, "must be Falta or Abonado")
	}
	if strings.TrimSpace(in.EmployeeID) == "" {
		return AbsenceRecord{}, records.Invalid(FieldEmployeeID, "is required")
	}
	if strings.TrimSpace(in.Justification) == "" {
		return AbsenceRecord{}, records.Invalid(FieldJustification, "is required")
	}
	tenantID = tenant.Normalize(tenantID)

	rec := AbsenceRecord{
		Kind:          kind,
		RecordID:      strings.TrimSpace(in.RecordID),
		EmployeeID:    strings.TrimSpace(in.EmployeeID),
		RecordedBy:    in.RecordedBy,
		RecorderRole:  in.RecorderRole,
		Justification: in.Justification,
		FiledAt:       s.now(),
	}
	fields := records.Fields{
		FieldRecordID:      rec.RecordID,
		FieldStatus:        string(rec.Kind),
		FieldEmployeeID:    rec.EmployeeID,
		FieldEmployeeName:  rec.RecordedBy,
		FieldRole:          rec.RecorderRole,
		FieldJustification: rec.Justification,
		FieldTimestamp:     rec.FiledAt,
	}

	partition := s.Router.Resolve(partitionKind, tenantID)
	var id string
	err := records.Await(ctx, s.StoreTimeout, func(ctx context.Context) error {
		var err error
		id, err = s.Store.Insert(ctx, partition, fields)
		return err
	})
	if err != nil {
		return AbsenceRecord{}, records.Wrap("file absence", err)
	}
	rec.ID = id
	if kind == AbsenceKindExcused {
		rec.Message = "excused absence recorded"
	} else {
		rec.Message = "absence recorded"
	}
	return rec, nil
}

func (s *Service) load(ctx context.Context, tenantID, id string) (records.Fields, error) {
	if strings.TrimSpace(id) == "" {
		return nil, records.Invalid("id", "is required")
	}
	partition := s.Router.Resolve(tenant.ClockEvents, tenantID)
	var fields records.Fields
	err := records.Await(ctx, s.StoreTimeout, func(ctx context.Context) error {
		var err error
		fields, err = s.Store.Get(ctx, partition, id)
		return err
	})
	if err != nil {
		return nil, records.Wrap("load clock event", err)
	}
	return fields, nil
}

func (s *Service) writeMirror(ctx context.Context, tenantID, id string, current, update records.Fields) (string, error) {
	mirror := update.Clone()
	mirror[FieldRecordID] = id
	mirror[FieldTimestamp] = s.now()
	mirror[FieldEmployeeID] = current.String(FieldEmployeeID)
	mirror[FieldEmployeeName] = current.String(FieldEmployeeName)
	if clock := ClockString(current[FieldClockTime]); clock != "" {
		mirror[FieldClockTime] = clock
	}

	partition := s.Router.Resolve(tenant.FinalizedEvents, tenantID)
	var finalizedID string
	err := records.Await(ctx, s.StoreTimeout, func(ctx context.Context) error {
		var err error
		finalizedID, err = s.Store.Insert(ctx, partition, mirror)
		return err
	})
	if err != nil {
		return "", err
	}
	return finalizedID, nil
}

// checkSite logs clock-ins whose site looks wrong. It runs after the event is
// stored and never fails the submit.
func (s *Service) checkSite(ctx context.Context, employeeID, tenantID, requested string) {
	if tenantID != tenant.Default && !s.Router.Known(tenantID) {
		slog.Warn("clock-in for tenant without its own partitions", "employeeId", employeeID, "tenant", tenantID)
	}
	if requested = strings.TrimSpace(requested); requested != "" && !strings.EqualFold(requested, tenantID) {
		slog.Warn("clock-in site differs from requested tenant",
			"employeeId", employeeID,
			"posto", requested,
			"tenant", tenantID,
		)
	}
	if s.Directory == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.directoryTimeout())
	defer cancel()
	home, found, err := s.Directory.HomeSite(ctx, employeeID)
	if err != nil {
		slog.Warn("employee directory lookup failed", "employeeId", employeeID, "err", err)
		return
	}
	if found && home != "" && !strings.EqualFold(home, tenantID) {
		slog.Warn("clock-in site differs from employee home site",
			"employeeId", employeeID,
			"homeSite", home,
			"site", tenantID,
		)
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *Service) directoryTimeout() time.Duration {
	if s.DirectoryTimeout <= 0 {
		return DefaultDirectoryTimeout
	}
	return s.DirectoryTimeout
}

func (s *Service) submitTimeout() time.Duration {
	if s.SubmitTimeout <= 0 {
		return DefaultSubmitTimeout
	}
	return s.SubmitTimeout
}

func validateResolution(id string, status Status, extras Extras) error {
	if strings.TrimSpace(id) == "" {
		return records.Invalid("id", "is required")
	}
	if !status.Terminal() {
		return records.Invalid(FieldStatus, "must be Aprovado or Recusado")
	}
	if strings.TrimSpace(extras.Actor) == "" {
		return records.Invalid(FieldEmployeeName, "resolving supervisor is required")
	}
	if status == StatusRejected && strings.TrimSpace(extras.Justification) == "" {
		return records.Invalid(FieldJustification, "is required when rejecting")
	}
	return nil
}

func absencePartition(kind AbsenceKind) (tenant.Kind, bool) {
	switch kind {
	case AbsenceKindAbsence:
		return tenant.Absences, true
	case AbsenceKindExcused:
		return tenant.ExcusedAbsences, true
	}
	return 0, false
}

func resolveMessage(status Status) string {
	if status == StatusApproved {
		return "clock event approved"
	}
	return "clock event rejected"
}

// ParseClockTime reads an ISO-8601 instant and returns it in UTC. Blank or
// unparseable input yields fallback.
func ParseClockTime(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback.UTC()
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return fallback.UTC()
	}
	return parsed.UTC()
}
