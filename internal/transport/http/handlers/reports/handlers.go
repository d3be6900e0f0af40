package reportshandler

import (
	"bytes"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Hugozera/apontamento/internal/domain/reports"
	"github.com/Hugozera/apontamento/internal/domain/tenant"
	"github.com/Hugozera/apontamento/internal/transport/http/api"
	"github.com/Hugozera/apontamento/internal/transport/http/middleware"
	"github.com/Hugozera/apontamento/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
}

func NewHandler(service *reports.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/monthly", h.handleMonthly)
		r.Get("/monthly/summary", h.handleMonthlySummary)
	})
}

type summaryResponse struct {
	Tenant string               `json:"tenant"`
	Year   int                  `json:"year"`
	Month  int                  `json:"month"`
	Events int                  `json:"events"`
	Days   []reports.DaySummary `json:"days"`
}

func (h *Handler) handleMonthly(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	tenantID, year, month, ok := parsePeriod(w, r)
	if !ok {
		return
	}
	format, ok := reports.ParseFormat(r.URL.Query().Get("format"))
	if !ok {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "format", Reason: "must be one of json, csv, xlsx, pdf"}})
		return
	}

	report, err := h.Service.BuildMonthlyReport(r.Context(), tenantID, year, month)
	if err != nil {
		slog.Warn("monthly report failed", "tenant", tenantID, "year", year, "month", int(month), "err", err)
		shared.FailService(w, err, requestID)
		return
	}
	if format == reports.FormatJSON {
		api.Success(w, report, requestID)
		return
	}

	meta := reports.Meta{Tenant: tenantID, Year: year, Month: month}
	var buf bytes.Buffer
	if err := report.Write(&buf, format, meta); err != nil {
		slog.Error("report export failed", "format", string(format), "err", err)
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render report", requestID)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": meta.Filename(format)}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("report write failed", "err", err)
	}
}

func (h *Handler) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	tenantID, year, month, ok := parsePeriod(w, r)
	if !ok {
		return
	}
	report, err := h.Service.BuildMonthlyReport(r.Context(), tenantID, year, month)
	if err != nil {
		slog.Warn("monthly summary failed", "tenant", tenantID, "err", err)
		shared.FailService(w, err, requestID)
		return
	}
	days := report.Summaries()
	if days == nil {
		days = []reports.DaySummary{}
	}
	api.Success(w, summaryResponse{
		Tenant: tenantID,
		Year:   year,
		Month:  int(month),
		Events: report.Count(),
		Days:   days,
	}, requestID)
}

func parsePeriod(w http.ResponseWriter, r *http.Request) (string, int, time.Month, bool) {
	query := r.URL.Query()
	year, month, err := shared.ParseYearMonth(query.Get("period"), query.Get("year"), query.Get("month"))
	if err != nil {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "period", Reason: err.Error()}})
		return "", 0, 0, false
	}
	return tenant.Normalize(shared.TenantFromQuery(r)), year, month, true
}
