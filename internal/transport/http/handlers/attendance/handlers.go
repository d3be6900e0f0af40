package attendancehandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Hugozera/apontamento/internal/domain/attendance"
	"github.com/Hugozera/apontamento/internal/domain/audit"
	"github.com/Hugozera/apontamento/internal/domain/tenant"
	"github.com/Hugozera/apontamento/internal/transport/http/api"
	"github.com/Hugozera/apontamento/internal/transport/http/middleware"
	"github.com/Hugozera/apontamento/internal/transport/http/shared"
)

type Handler struct {
	Service *attendance.Service
	Audit   *audit.Service
}

func NewHandler(service *attendance.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/clock-events", func(r chi.Router) {
		r.Post("/", h.handleSubmit)
		r.Get("/pending", h.handleListPending)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}/approve", h.handleApprove)
		r.Put("/{id}/reject", h.handleReject)
	})
	r.Post("/absences", h.handleFileAbsence(attendance.AbsenceKindAbsence))
	r.Post("/excused-absences", h.handleFileAbsence(attendance.AbsenceKindExcused))
}

type submitPayload struct {
	EmployeeID   string `json:"idLogin" validate:"required,max=128"`
	EmployeeName string `json:"usuario" validate:"max=256"`
	ClockTime    string `json:"horaPonto"`
	Photo        string `json:"foto"`
	PasswordEcho string `json:"senhaPdv"`
	Site         string `json:"posto" validate:"max=64"`
}

// Older review screens send the supervisor as "usuario".
type approvePayload struct {
	ApprovedBy string `json:"aprovadoPor" validate:"max=256"`
	User       string `json:"usuario" validate:"max=256"`
}

func (p approvePayload) actor() string {
	return firstNonBlank(p.ApprovedBy, p.User)
}

type rejectPayload struct {
	RejectedBy    string `json:"recusadoPor" validate:"max=256"`
	User          string `json:"usuario" validate:"max=256"`
	Justification string `json:"justificativa" validate:"required"`
}

func (p rejectPayload) actor() string {
	return firstNonBlank(p.RejectedBy, p.User)
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

type absencePayload struct {
	RecordID      string `json:"pontoId"`
	EmployeeID    string `json:"idLogin" validate:"required,max=128"`
	RecordedBy    string `json:"usuario"`
	RecorderRole  string `json:"cargo"`
	Justification string `json:"justificativa" validate:"required"`
}

type resolveResponse struct {
	attendance.ResolveResult
	Warning string `json:"warning,omitempty"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, requestID) {
		return
	}

	tenantID := tenant.Normalize(shared.ResolveTenant(r, payload.Site))
	result, err := h.Service.Submit(r.Context(), tenantID, attendance.SubmitInput{
		EmployeeID:   payload.EmployeeID,
		EmployeeName: payload.EmployeeName,
		ClockTime:    payload.ClockTime,
		Photo:        payload.Photo,
		PasswordEcho: payload.PasswordEcho,
		Site:         payload.Site,
	})
	if err != nil {
		h.logFailure("clock event submit failed", tenantID, err)
		shared.FailService(w, err, requestID)
		return
	}
	h.record(r, tenantID, payload.EmployeeID, "attendance.submit", "clock_event", result.ID, nil)
	api.Created(w, result, result.Message, requestID)
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	tenantID := tenant.Normalize(shared.TenantFromQuery(r))
	pending, err := h.Service.ListPending(r.Context(), tenantID)
	if err != nil {
		h.logFailure("pending list failed", tenantID, err)
		shared.FailService(w, err, requestID)
		return
	}
	api.Success(w, pending, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	tenantID := tenant.Normalize(shared.TenantFromQuery(r))
	rec, err := h.Service.Get(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		shared.FailService(w, err, requestID)
		return
	}
	api.Success(w, rec, requestID)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload approvePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	validator.Required("aprovadoPor", payload.actor(), "is required")
	if validator.Reject(w, requestID) {
		return
	}

	tenantID := tenant.Normalize(shared.TenantFromQuery(r))
	id := chi.URLParam(r, "id")
	actor := payload.actor()
	result, err := h.Service.Approve(r.Context(), tenantID, id, actor)
	h.writeResolution(w, r, tenantID, actor, "attendance.approve", result, err)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload rejectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	validator.Required("recusadoPor", payload.actor(), "is required")
	if validator.Reject(w, requestID) {
		return
	}

	tenantID := tenant.Normalize(shared.TenantFromQuery(r))
	id := chi.URLParam(r, "id")
	actor := payload.actor()
	result, err := h.Service.Reject(r.Context(), tenantID, id, actor, payload.Justification)
	h.writeResolution(w, r, tenantID, actor, "attendance.reject", result, err)
}

func (h *Handler) writeResolution(w http.ResponseWriter, r *http.Request, tenantID, actor, action string, result attendance.ResolveResult, err error) {
	requestID := middleware.GetRequestID(r.Context())
	if err != nil {
		h.logFailure("clock event resolve failed", tenantID, err)
		shared.FailService(w, err, requestID)
		return
	}
	resp := resolveResponse{ResolveResult: result}
	if result.MirrorFailed() {
		resp.Warning = "decision saved but the finalized copy was not written; it will be repaired by reconciliation"
	}
	h.record(r, tenantID, actor, action, "clock_event", result.ID, map[string]any{
		"status":       result.Status,
		"finalizedId":  result.FinalizedID,
		"mirrorFailed": result.MirrorFailed(),
	})
	api.SuccessWithMessage(w, resp, result.Message, requestID)
}

func (h *Handler) handleFileAbsence(kind attendance.AbsenceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetRequestID(r.Context())
		var payload absencePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
			return
		}
		validator := shared.NewValidator()
		validator.Struct(payload)
		if validator.Reject(w, requestID) {
			return
		}

		tenantID := tenant.Normalize(shared.TenantFromQuery(r))
		rec, err := h.Service.FileAbsence(r.Context(), tenantID, kind, attendance.AbsenceInput{
			RecordID:      payload.RecordID,
			EmployeeID:    payload.EmployeeID,
			RecordedBy:    payload.RecordedBy,
			RecorderRole:  payload.RecorderRole,
			Justification: payload.Justification,
		})
		if err != nil {
			h.logFailure("absence filing failed", tenantID, err)
			shared.FailService(w, err, requestID)
			return
		}
		h.record(r, tenantID, payload.RecordedBy, "absence.file", "absence", rec.ID, map[string]any{"kind": kind, "employeeId": rec.EmployeeID})
		api.Created(w, rec, rec.Message, requestID)
	}
}

func (h *Handler) record(r *http.Request, tenantID, actor, action, entityType, entityID string, details any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), tenantID, actor, action, entityType, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), details); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func (h *Handler) logFailure(msg, tenantID string, err error) {
	slog.Warn(msg, "tenant", tenantID, "err", err)
}
