package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic-analytics/internal/auth"
	facts "clinic-analytics/internal/facts/domain"
	facthttp "clinic-analytics/internal/facts/interfaces/http"
	kpiapp "clinic-analytics/internal/kpi/application"
	"clinic-analytics/internal/plan"
)

// Handler serves the dashboard snapshot.
type Handler struct {
	service *kpiapp.Service
}

// NewHandler constructs a handler.
func NewHandler(service *kpiapp.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("kpi handler: nil service")
	}
	return &Handler{service: service}, nil
}

// Register mounts /api/v1/dashboard/snapshot.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/v1/dashboard/snapshot", h.handleSnapshot)
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	tenant, err := auth.TenantFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	result, err := h.service.ComputeSnapshotAndAlerts(r.Context(), tenant, facthttp.FilterFromQuery(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, facts.ErrInvalidPeriod), errors.Is(err, facts.ErrInvalidDate), errors.Is(err, plan.ErrInvalidTier):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
