package integration_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"clinic-analytics/internal/auth"
	kpi "clinic-analytics/internal/kpi/domain"
	"clinic-analytics/internal/plan"
	rcaapp "clinic-analytics/internal/rca/application"
	rca "clinic-analytics/internal/rca/domain"
	rcarepo "clinic-analytics/internal/rca/infrastructure/postgres"
)

func TestRCALifecycle_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if !tableExists(db, "rca_records") {
		t.Skip("missing tables; run migrations")
	}

	ctx := context.Background()
	tenantA := auth.Tenant{ID: "tenant-it-rca-a", Plan: plan.TierPro}
	tenantB := auth.Tenant{ID: "tenant-it-rca-b", Plan: plan.TierPro}
	_, _ = db.ExecContext(ctx, "DELETE FROM rca_records WHERE tenant_id IN ($1, $2)", tenantA.ID, tenantB.ID)

	service, err := rcaapp.NewService(rcarepo.NewRCARepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	created, err := service.Create(ctx, tenantB, rca.CreateInput{
		AlertID:    "revpas_drop",
		Severity:   kpi.PriorityP1,
		Title:      "Queda de RevPAS crítica",
		RootCause:  "Agenda bloqueada por manutenção",
		ActionPlan: "Redistribuir horários",
		Owner:      "dani",
		DueDate:    due,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.UpdateStatus(ctx, tenantA, created.ID, rca.Patch{Status: rca.StatusDone}); !errors.Is(err, rca.ErrNotFound) {
		t.Fatalf("expected not found for foreign tenant, got %v", err)
	}

	newPlan := "Abrir agenda extra aos sábados"
	updated, err := service.UpdateStatus(ctx, tenantB, created.ID, rca.Patch{Status: rca.StatusInProgress, ActionPlan: &newPlan})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ActionPlan != newPlan || updated.RootCause != created.RootCause || updated.Owner != "dani" {
		t.Fatalf("unexpected updated record %+v", updated)
	}

	list, err := service.List(ctx, tenantB, rca.ListFilter{Status: rca.StatusInProgress, Severity: kpi.PriorityP1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID || !list[0].DueDate.Equal(due) {
		t.Fatalf("unexpected list %+v", list)
	}
}

func tableExists(db *sql.DB, table string) bool {
	var exists bool
	err := db.QueryRow(`
SELECT EXISTS (
	SELECT 1
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = $1
)`, table).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}
