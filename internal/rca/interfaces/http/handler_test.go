package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"clinic-analytics/internal/audit"
	"clinic-analytics/internal/auth"
	"clinic-analytics/internal/plan"
	rcaapp "clinic-analytics/internal/rca/application"
	rca "clinic-analytics/internal/rca/domain"
	"clinic-analytics/internal/rca/infrastructure/memory"
)

const createBody = `{"alert_id":"no_show_rate","severity":"P1","title":"Taxa de no-show crítica",
"root_cause":"Lembretes desligados","action_plan":"Religar lembretes","owner":"ana","due_date":"2026-03-01T00:00:00Z"}`

func newRouter(t *testing.T) (http.Handler, *audit.MemoryLogger) {
	t.Helper()
	service, err := rcaapp.NewService(memory.NewRCARepository())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	logger := audit.NewMemoryLogger()
	handler, err := NewHandler(service, logger)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	router := chi.NewRouter()
	handler.Register(router)
	return router, logger
}

func do(t *testing.T, router http.Handler, method, path, tenantID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(auth.WithIdentity(req.Context(), tenantID, auth.RoleOperator, "ops", plan.TierPro))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestRCAHandler_CreatePatchList(t *testing.T) {
	router, logger := newRouter(t)

	resp := do(t, router, http.MethodPost, "/api/v1/rca", "tenant-a", createBody)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created rca.Record
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp = do(t, router, http.MethodPatch, "/api/v1/rca/1", "tenant-b", `{"status":"done"}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign tenant, got %d", resp.Code)
	}

	resp = do(t, router, http.MethodPatch, "/api/v1/rca/1", "tenant-a", `{"status":"in_progress","owner":"bruno"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = do(t, router, http.MethodGet, "/api/v1/rca?status=in_progress&severity=P1", "tenant-a", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var list []rca.Record
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Owner != "bruno" || list[0].RootCause != created.RootCause {
		t.Fatalf("unexpected list %+v", list)
	}

	entries := logger.Entries()
	if len(entries) != 2 || entries[0].Action != "rca.create" || entries[1].Action != "rca.update" || entries[1].ResourceID != "1" {
		t.Fatalf("unexpected audit entries %+v", entries)
	}
}

func TestRCAHandler_Validation(t *testing.T) {
	router, _ := newRouter(t)
	if resp := do(t, router, http.MethodPost, "/api/v1/rca", "tenant-a", `{"alert_id":"x","severity":"P1","title":"t","root_cause":"a","action_plan":"abc","owner":"o","due_date":"2026-03-01T00:00:00Z"}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short root cause, got %d", resp.Code)
	}
	do(t, router, http.MethodPost, "/api/v1/rca", "tenant-a", createBody)
	if resp := do(t, router, http.MethodPatch, "/api/v1/rca/1", "tenant-a", `{"status":"closed"}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid status, got %d", resp.Code)
	}
	if resp := do(t, router, http.MethodGet, "/api/v1/rca?status=archived", "tenant-a", ""); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid status filter, got %d", resp.Code)
	}
	if resp := do(t, router, http.MethodPatch, "/api/v1/rca/abc", "tenant-a", `{"status":"done"}`); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for non numeric id, got %d", resp.Code)
	}
}
