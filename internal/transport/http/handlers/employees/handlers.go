package employeeshandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Hugozera/apontamento/internal/domain/audit"
	"github.com/Hugozera/apontamento/internal/domain/employees"
	"github.com/Hugozera/apontamento/internal/domain/tenant"
	"github.com/Hugozera/apontamento/internal/transport/http/api"
	"github.com/Hugozera/apontamento/internal/transport/http/middleware"
	"github.com/Hugozera/apontamento/internal/transport/http/shared"
)

type Handler struct {
	Service *employees.Service
	Audit   *audit.Service
}

func NewHandler(service *employees.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/site/{site}", h.handleListBySite)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
		})
	})
}

type createPayload struct {
	EmployeeID string `json:"idLogin" validate:"required,max=128"`
	Name       string `json:"name" validate:"required,max=256"`
	Email      string `json:"email" validate:"required,email,max=256"`
	Role       string `json:"role" validate:"required,max=64"`
	Site       string `json:"posto" validate:"max=64"`
}

type updatePayload struct {
	EmployeeID string `json:"idLogin" validate:"max=128"`
	Name       string `json:"name" validate:"max=256"`
	Email      string `json:"email" validate:"omitempty,email,max=256"`
	Role       string `json:"role" validate:"max=64"`
	Site       string `json:"posto" validate:"max=64"`
	Active     *bool  `json:"ativo"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	list, err := h.Service.List(r.Context())
	if err != nil {
		slog.Warn("employee list failed", "err", err)
		shared.FailService(w, err, requestID)
		return
	}
	h.writePage(w, r, list)
}

func (h *Handler) handleListBySite(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	site := chi.URLParam(r, "site")
	list, err := h.Service.ListBySite(r.Context(), site)
	if err != nil {
		slog.Warn("employee site list failed", "site", site, "err", err)
		shared.FailService(w, err, requestID)
		return
	}
	h.writePage(w, r, list)
}

func (h *Handler) writePage(w http.ResponseWriter, r *http.Request, list []employees.Employee) {
	page := shared.ParsePagination(r, 100, 500)
	w.Header().Set("X-Total-Count", strconv.Itoa(len(list)))
	api.Success(w, shared.Page(list, page), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	emp, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.FailService(w, err, requestID)
		return
	}
	api.Success(w, emp, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, requestID) {
		return
	}

	emp, err := h.Service.Create(r.Context(), employees.Input{
		EmployeeID: payload.EmployeeID,
		Name:       payload.Name,
		Email:      payload.Email,
		Role:       payload.Role,
		Site:       payload.Site,
	})
	if err != nil {
		slog.Warn("employee create failed", "idLogin", payload.EmployeeID, "err", err)
		shared.FailService(w, err, requestID)
		return
	}
	h.record(r, "employee.create", emp.ID, map[string]any{"idLogin": emp.EmployeeID, "posto": emp.Site})
	api.Created(w, emp, "employee created", requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload updatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, requestID) {
		return
	}

	id := chi.URLParam(r, "id")
	emp, err := h.Service.Update(r.Context(), id, employees.Input{
		EmployeeID: payload.EmployeeID,
		Name:       payload.Name,
		Email:      payload.Email,
		Role:       payload.Role,
		Site:       payload.Site,
		Active:     payload.Active,
	})
	if err != nil {
		shared.FailService(w, err, requestID)
		return
	}
	h.record(r, "employee.update", id, payload)
	api.SuccessWithMessage(w, emp, "employee updated", requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "id")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		shared.FailService(w, err, requestID)
		return
	}
	h.record(r, "employee.delete", id, nil)
	api.SuccessWithMessage(w, map[string]string{"id": id}, "employee removed", requestID)
}

// record files directory changes under the tenant named in the query, or the
// default tenant.
func (h *Handler) record(r *http.Request, action, entityID string, details any) {
	if h.Audit == nil {
		return
	}
	tenantID := tenant.Normalize(shared.TenantFromQuery(r))
	if err := h.Audit.Record(r.Context(), tenantID, "", action, "employee", entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), details); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
