package maintenancehandler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Hugozera/apontamento/internal/domain/audit"
	"github.com/Hugozera/apontamento/internal/domain/tenant"
	"github.com/Hugozera/apontamento/internal/platform/jobs"
	"github.com/Hugozera/apontamento/internal/transport/http/api"
	"github.com/Hugozera/apontamento/internal/transport/http/middleware"
	"github.com/Hugozera/apontamento/internal/transport/http/shared"
)

type Handler struct {
	Jobs  *jobs.Service
	Audit *audit.Service
}

func NewHandler(jobsSvc *jobs.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Jobs: jobsSvc, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/maintenance", func(r chi.Router) {
		r.Post("/reconcile", h.handleReconcile)
		r.Get("/runs", h.handleListRuns)
	})
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	repair := false
	if raw := r.URL.Query().Get("repair"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "repair", Reason: "must be true or false"}})
			return
		}
		repair = parsed
	}

	tenantID := tenant.Normalize(shared.TenantFromQuery(r))
	summary, err := h.Jobs.ReconcileNow(r.Context(), tenantID, repair)
	if err != nil {
		slog.Warn("reconcile failed", "tenant", tenantID, "err", err)
		shared.FailService(w, err, requestID)
		return
	}
	if h.Audit != nil {
		if err := h.Audit.Record(r.Context(), tenantID, "", "maintenance.reconcile", "finalized_events", "", requestID, shared.ClientIP(r), summary); err != nil {
			slog.Warn("audit record failed", "action", "maintenance.reconcile", "err", err)
		}
	}
	api.Success(w, summary, requestID)
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	tenantID := tenant.Normalize(shared.TenantFromQuery(r))
	page := shared.ParsePagination(r, 50, 200)
	runs, err := h.Jobs.ListRuns(r.Context(), tenantID, r.URL.Query().Get("jobType"), 0)
	if err != nil {
		shared.FailService(w, err, requestID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(runs)))
	api.Success(w, shared.Page(runs, page), requestID)
}
