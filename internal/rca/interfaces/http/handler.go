package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"clinic-analytics/internal/audit"
	"clinic-analytics/internal/auth"
	kpi "clinic-analytics/internal/kpi/domain"
	"clinic-analytics/internal/plan"
	rcaapp "clinic-analytics/internal/rca/application"
	rca "clinic-analytics/internal/rca/domain"
)

// Handler provides RCA endpoints.
type Handler struct {
	service     *rcaapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *rcaapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("rca handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// Register mounts /api/v1/rca routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/v1/rca", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Patch("/{id}", h.handleUpdate)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	tenant, err := auth.TenantFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var in rca.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	record, err := h.service.Create(r.Context(), tenant, in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(record)
	h.logAudit(r, record, "rca.create", map[string]any{
		"alert_id": record.AlertID,
		"severity": record.Severity,
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	tenant, err := auth.TenantFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	var patch rca.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	record, err := h.service.UpdateStatus(r.Context(), tenant, id, patch)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(record)
	h.logAudit(r, record, "rca.update", map[string]any{
		"status":      record.Status,
		"root_cause":  patch.RootCause != nil,
		"action_plan": patch.ActionPlan != nil,
		"owner":       patch.Owner != nil,
		"due_date":    patch.DueDate != nil,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenant, err := auth.TenantFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	filter, err := parseListFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.service.List(r.Context(), tenant, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func parseListFilter(r *http.Request) (rca.ListFilter, error) {
	var filter rca.ListFilter
	if value := r.URL.Query().Get("severity"); value != "" {
		severity, ok := kpi.ParsePriority(value)
		if !ok {
			return rca.ListFilter{}, errors.New("severity must be P1, P2 or P3")
		}
		filter.Severity = severity
	}
	if value := r.URL.Query().Get("status"); value != "" {
		status, err := rca.ParseStatus(value)
		if err != nil {
			return rca.ListFilter{}, err
		}
		filter.Status = status
	}
	return filter, nil
}

func (h *Handler) logAudit(r *http.Request, record rca.Record, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	entry, ok := audit.FromRequest(r, action, "rca", strconv.FormatInt(record.ID, 10), meta)
	if !ok {
		return
	}
	_ = h.auditLogger.Log(r.Context(), entry)
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rca.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, rca.ErrValidation), errors.Is(err, rca.ErrInvalidStatus), errors.Is(err, plan.ErrInvalidTier):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
