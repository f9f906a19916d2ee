package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic-analytics/internal/audit"
	"clinic-analytics/internal/auth"
	factapp "clinic-analytics/internal/facts/application"
	facts "clinic-analytics/internal/facts/domain"
)

const maxBodyBytes = 8 << 20

// Handler provides the fact ingest endpoint.
type Handler struct {
	service     *factapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *factapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("facts handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// Register mounts /api/v1/facts.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/v1/facts", h.handleIngest)
}

func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	tenant, err := auth.TenantFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var list []facts.Fact
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&list); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	count, err := h.service.Ingest(r.Context(), tenant, list)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"appended": count})
	if h.auditLogger == nil {
		return
	}
	if entry, ok := audit.FromRequest(r, "facts.ingest", "facts", "", map[string]any{"count": count}); ok {
		_ = h.auditLogger.Log(r.Context(), entry)
	}
}

// FilterFromQuery reads the dashboard filter from query parameters.
func FilterFromQuery(r *http.Request) facts.Filter {
	q := r.URL.Query()
	return facts.Filter{
		Period:       facts.Period(q.Get("period")),
		DateFrom:     q.Get("date_from"),
		DateTo:       q.Get("date_to"),
		Channel:      q.Get("channel"),
		Professional: q.Get("professional"),
		Procedure:    q.Get("procedure"),
		Unit:         q.Get("unit"),
		Status:       q.Get("status"),
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, facts.ErrInvalidFact) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}
