package attendance

import "time"

type Status string

const (
	StatusPending  Status = "Pendente"
	StatusApproved Status = "Aprovado"
	StatusRejected Status = "Recusado"
)

// Terminal reports whether s is a supervisor decision.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type AbsenceKind string

const (
	AbsenceKindAbsence AbsenceKind = "Falta"
	AbsenceKindExcused AbsenceKind = "Abonado"
)

// Stored field names.
const (
	FieldEmployeeID    = "idLogin"
	FieldEmployeeName  = "usuario"
	FieldClockTime     = "horaPonto"
	FieldPhoto         = "foto"
	FieldPasswordEcho  = "senhaPdv"
	FieldSite          = "posto"
	FieldCreatedAt     = "createdAt"
	FieldStatus        = "status"
	FieldApprovedBy    = "aprovadoPor"
	FieldApprovedAt    = "dataAprovacao"
	FieldRejectedBy    = "recusadoPor"
	FieldRejectedAt    = "dataRecusa"
	FieldJustification = "justificativa"
	FieldRecordID      = "pontoId"
	FieldTimestamp     = "data"
	FieldRole          = "cargo"
)

// ClockLayout is the zero-padded time-of-day form used for ordering.
const ClockLayout = "15:04:05"

const (
	DefaultSubmitTimeout    = 5 * time.Second
	DefaultDirectoryTimeout = 500 * time.Millisecond
)
