package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"clinic-analytics/internal/audit"
	"clinic-analytics/internal/auth"
	exportapp "clinic-analytics/internal/exports/application"
	exports "clinic-analytics/internal/exports/domain"
	facts "clinic-analytics/internal/facts/domain"
	facthttp "clinic-analytics/internal/facts/interfaces/http"
	"clinic-analytics/internal/plan"
)

// Handler provides export cadence and report endpoints.
type Handler struct {
	service     *exportapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *exportapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("exports handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// Register mounts /api/v1/exports routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/v1/exports/window", h.handleWindow)
	r.Post("/api/v1/exports/report", h.handleReport)
}

func (h *Handler) handleWindow(w http.ResponseWriter, r *http.Request) {
	tenant, err := auth.TenantFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	status, err := h.service.CurrentWindow(r.Context(), tenant)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	tenant, err := auth.TenantFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = exportapp.FormatPDF
	}
	report, err := h.service.Export(r.Context(), tenant, format, facthttp.FilterFromQuery(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(report.Data)))
	w.Header().Set("X-Report-Id", report.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report.Data)

	if h.auditLogger == nil {
		return
	}
	entry, ok := audit.FromRequest(r, "report.export", "report", report.ID, map[string]any{
		"format": report.Format,
		"window": report.Window.Key,
	})
	if ok {
		_ = h.auditLogger.Log(r.Context(), entry)
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exports.ErrLimitReached):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, exports.ErrInvalidFormat),
		errors.Is(err, facts.ErrInvalidPeriod),
		errors.Is(err, facts.ErrInvalidDate),
		errors.Is(err, plan.ErrInvalidTier):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
