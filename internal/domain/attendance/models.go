package attendance

import (
	"time"

	"github.com/Hugozera/apontamento/internal/domain/records"
)

type SubmitInput struct {
	EmployeeID   string
	EmployeeName string
	// ClockTime is an ISO-8601 instant as sent by the kiosk. Missing or
	// unparseable values fall back to the server clock.
	ClockTime    string
	Photo        string
	PasswordEcho string
	// Site is the posto the kiosk reported. The record is stored under the
	// resolved tenant; a differing Site is logged.
	Site string
}

type SubmitResult struct {
	ID      string `json:"id"`
	Tenant  string `json:"tenant"`
	Message string `json:"message"`
}

type AttendanceRecord struct {
	ID            string     `json:"id"`
	EmployeeID    string     `json:"idLogin"`
	EmployeeName  string     `json:"usuario,omitempty"`
	ClockTime     time.Time  `json:"horaPonto"`
	Photo         string     `json:"foto,omitempty"`
	PasswordEcho  string     `json:"-"`
	Site          string     `json:"posto,omitempty"`
	Status        Status     `json:"status,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	ResolvedBy    string     `json:"resolvedBy,omitempty"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
	Justification string     `json:"justificativa,omitempty"`
}

// Pending reports whether the record still awaits a decision: no status, an
// empty one, or Pendente. Any other status is excluded.
func (r AttendanceRecord) Pending() bool {
	return r.Status == "" || r.Status == StatusPending
}

// Extras is the resolution metadata merged into a record on approval or
// rejection.
type Extras struct {
	Actor         string
	Justification string
	// ResolvedAt defaults to the service clock.
	ResolvedAt time.Time
}

type ResolveResult struct {
	ID          string `json:"id"`
	Status      Status `json:"status"`
	FinalizedID string `json:"finalizedId,omitempty"`
	Message     string `json:"message"`
	// MirrorErr is set when the canonical update succeeded but the finalized
	// copy could not be written.
	MirrorErr error `json:"-"`
}

func (r ResolveResult) MirrorFailed() bool {
	return r.MirrorErr != nil
}

type FinalizedRecord struct {
	ID            string     `json:"id"`
	RecordID      string     `json:"pontoId"`
	Status        Status     `json:"status"`
	EmployeeID    string     `json:"idLogin,omitempty"`
	EmployeeName  string     `json:"usuario,omitempty"`
	ClockTime     string     `json:"horaPonto,omitempty"`
	ResolvedBy    string     `json:"resolvedBy,omitempty"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
	Justification string     `json:"justificativa,omitempty"`
	FinalizedAt   *time.Time `json:"data,omitempty"`
}

type AbsenceInput struct {
	RecordID      string
	EmployeeID    string
	RecordedBy    string
	RecorderRole  string
	Justification string
}

type AbsenceRecord struct {
	ID            string      `json:"id"`
	Kind          AbsenceKind `json:"status"`
	RecordID      string      `json:"pontoId,omitempty"`
	EmployeeID    string      `json:"idLogin"`
	RecordedBy    string      `json:"usuario,omitempty"`
	RecorderRole  string      `json:"cargo,omitempty"`
	Justification string      `json:"justificativa"`
	FiledAt       time.Time   `json:"data"`
	Message       string      `json:"message,omitempty"`
}

type ReconcileSummary struct {
	Tenant    string   `json:"tenant"`
	Resolved  int      `json:"resolved"`
	Mirrored  int      `json:"mirrored"`
	Missing   []string `json:"missing"`
	Repaired  int      `json:"repaired"`
	Orphans   int      `json:"orphans"`
	Repairing bool     `json:"repair"`
}

func recordFromDocument(id string, fields records.Fields) AttendanceRecord {
	rec := AttendanceRecord{
		ID:            id,
		EmployeeID:    fields.String(FieldEmployeeID),
		EmployeeName:  fields.String(FieldEmployeeName),
		Photo:         fields.String(FieldPhoto),
		PasswordEcho:  fields.String(FieldPasswordEcho),
		Site:          fields.String(FieldSite),
		Status:        Status(fields.String(FieldStatus)),
		Justification: fields.String(FieldJustification),
	}
	if at, ok := fields.Time(FieldClockTime); ok {
		rec.ClockTime = at.UTC()
	}
	if at, ok := fields.Time(FieldCreatedAt); ok {
		rec.CreatedAt = at.UTC()
	}
	switch rec.Status {
	case StatusApproved:
		rec.ResolvedBy = fields.String(FieldApprovedBy)
		rec.ResolvedAt = timePtr(fields, FieldApprovedAt)
	case StatusRejected:
		rec.ResolvedBy = fields.String(FieldRejectedBy)
		rec.ResolvedAt = timePtr(fields, FieldRejectedAt)
	}
	return rec
}

// FinalizedFromDocument reads a finalized mirror. Fields written before the
// mirror carried employee data stay empty.
func FinalizedFromDocument(id string, fields records.Fields) FinalizedRecord {
	rec := FinalizedRecord{
		ID:            id,
		RecordID:      fields.String(FieldRecordID),
		Status:        Status(fields.String(FieldStatus)),
		EmployeeID:    fields.String(FieldEmployeeID),
		EmployeeName:  fields.String(FieldEmployeeName),
		ClockTime:     ClockString(fields[FieldClockTime]),
		Justification: fields.String(FieldJustification),
		FinalizedAt:   timePtr(fields, FieldTimestamp),
	}
	if by := fields.String(FieldApprovedBy); by != "" {
		rec.ResolvedBy = by
		rec.ResolvedAt = timePtr(fields, FieldApprovedAt)
	} else {
		rec.ResolvedBy = fields.String(FieldRejectedBy)
		rec.ResolvedAt = timePtr(fields, FieldRejectedAt)
	}
	return rec
}

// ClockString renders a stored clock value as HH:MM:SS. Strings are kept as
// stored; instants are formatted in UTC; anything else yields "".
func ClockString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.UTC().Format(ClockLayout)
	case *time.Time:
		if v == nil || v.IsZero() {
			return ""
		}
		return v.UTC().Format(ClockLayout)
	default:
		return ""
	}
}

func (e Extras) fields(status Status, at time.Time) records.Fields {
	out := records.Fields{FieldStatus: string(status)}
	switch status {
	case StatusApproved:
		out[FieldApprovedBy] = e.Actor
		out[FieldApprovedAt] = at
	case StatusRejected:
		out[FieldRejectedBy] = e.Actor
		out[FieldJustification] = e.Justification
		out[FieldRejectedAt] = at
	}
	return out
}

func timePtr(fields records.Fields, key string) *time.Time {
	at, ok := fields.Time(key)
	if !ok {
		return nil
	}
	at = at.UTC()
	return &at
}
