package application

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"clinic-analytics/internal/auth"
	facts "clinic-analytics/internal/facts/domain"
	"clinic-analytics/internal/facts/infrastructure/memory"
	kpi "clinic-analytics/internal/kpi/domain"
	"clinic-analytics/internal/plan"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var now = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, repo facts.Repository) *Service {
	t.Helper()
	service, err := NewService(repo, kpi.DefaultTables(), WithClock(fixedClock{now: now}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func seedNoShowScenario(t *testing.T, repo *memory.FactRepository, tenantID string) {
	t.Helper()
	list := make([]facts.Fact, 0, 100)
	for i := 0; i < 100; i++ {
		status := facts.StatusCompleted
		if i < 20 {
			status = facts.StatusNoShow
		}
		list = append(list, facts.Fact{
			OccurredAt:     now.Add(-time.Duration(i+1) * time.Hour),
			Channel:        "whatsapp",
			Status:         status,
			Entries:        1000,
			Exits:          400,
			AvailableSlots: 10,
			AvgTicket:      200,
		})
	}
	if err := repo.Append(context.Background(), tenantID, list); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestComputeSnapshotAndAlerts_EmptyStore(t *testing.T) {
	service := newService(t, memory.NewFactRepository())
	result, err := service.ComputeSnapshotAndAlerts(context.Background(), auth.Tenant{ID: "tenant-a", Plan: plan.TierEssential}, facts.Filter{})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if result.Snapshot != (kpi.Snapshot{}) {
		t.Fatalf("expected zero snapshot, got %+v", result.Snapshot)
	}
	if result.Alerts == nil || len(result.Alerts) != 0 {
		t.Fatalf("expected empty alerts, got %#v", result.Alerts)
	}
	for key, priority := range result.Classifications {
		if priority != kpi.PriorityNone {
			t.Fatalf("expected no priority for %s on empty data, got %q", key, priority)
		}
	}
	if want := now.AddDate(0, 0, -30); !result.Window.From.Equal(want) {
		t.Fatalf("expected default 30d window from %s, got %s", want, result.Window.From)
	}
}

func TestComputeSnapshotAndAlerts_NoShowScenario(t *testing.T) {
	repo := memory.NewFactRepository()
	seedNoShowScenario(t, repo, "tenant-a")
	service := newService(t, repo)

	result, err := service.ComputeSnapshotAndAlerts(context.Background(), auth.Tenant{ID: "tenant-a", Plan: plan.TierEssential}, facts.Filter{Period: facts.Period7D})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if result.Snapshot.FactCount != 100 {
		t.Fatalf("expected 100 facts, got %d", result.Snapshot.FactCount)
	}
	if math.Abs(result.Snapshot.NoShowRatePct-20) > 1e-9 || math.Abs(result.Snapshot.MarginPct-60) > 1e-9 {
		t.Fatalf("unexpected snapshot %+v", result.Snapshot)
	}
	if result.Classifications[kpi.KPINoShowRate] != kpi.PriorityP1 {
		t.Fatalf("expected P1 no-show classification, got %q", result.Classifications[kpi.KPINoShowRate])
	}
	if len(result.Alerts) == 0 || result.Alerts[0].MetricKey != string(kpi.KPINoShowRate) {
		t.Fatalf("expected no-show alert first, got %+v", result.Alerts)
	}
	if !result.Alerts[0].TriggeredAt.Equal(now) {
		t.Fatalf("expected alerts stamped with clock time, got %s", result.Alerts[0].TriggeredAt)
	}
}

func TestComputeSnapshotAndAlerts_TenantIsolationAndFilter(t *testing.T) {
	repo := memory.NewFactRepository()
	seedNoShowScenario(t, repo, "tenant-b")
	service := newService(t, repo)

	result, err := service.ComputeSnapshotAndAlerts(context.Background(), auth.Tenant{ID: "tenant-a", Plan: plan.TierPro}, facts.Filter{})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if result.Snapshot.FactCount != 0 {
		t.Fatalf("tenant-a must not see tenant-b facts, got %d", result.Snapshot.FactCount)
	}

	result, err = service.ComputeSnapshotAndAlerts(context.Background(), auth.Tenant{ID: "tenant-b", Plan: plan.TierPro}, facts.Filter{Channel: "phone"})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if result.Snapshot.FactCount != 0 || len(result.Alerts) != 0 {
		t.Fatalf("channel filter should exclude every fact, got %+v", result.Snapshot)
	}
}

func TestComputeSnapshotAndAlerts_Validation(t *testing.T) {
	service := newService(t, memory.NewFactRepository())
	ctx := context.Background()

	_, err := service.ComputeSnapshotAndAlerts(ctx, auth.Tenant{ID: "tenant-a", Plan: plan.TierPro}, facts.Filter{Period: "5y"})
	if !errors.Is(err, facts.ErrInvalidPeriod) {
		t.Fatalf("expected invalid period, got %v", err)
	}
	_, err = service.ComputeSnapshotAndAlerts(ctx, auth.Tenant{ID: "tenant-a", Plan: "gold"}, facts.Filter{})
	if !errors.Is(err, plan.ErrInvalidTier) {
		t.Fatalf("expected invalid tier, got %v", err)
	}
	_, err = service.ComputeSnapshotAndAlerts(ctx, auth.Tenant{Plan: plan.TierPro}, facts.Filter{})
	if !errors.Is(err, auth.ErrMissingTenant) {
		t.Fatalf("expected missing tenant, got %v", err)
	}
}

type failingRepo struct{ err error }

func (r failingRepo) Append(context.Context, string, []facts.Fact) error { return r.err }

func (r failingRepo) ListByTenant(context.Context, string, time.Time, time.Time) ([]facts.Fact, error) {
	return nil, r.err
}

func TestComputeSnapshotAndAlerts_StoreFailurePropagates(t *testing.T) {
	storeErr := errors.New("connection refused")
	service := newService(t, failingRepo{err: storeErr})
	_, err := service.ComputeSnapshotAndAlerts(context.Background(), auth.Tenant{ID: "tenant-a", Plan: plan.TierPro}, facts.Filter{})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}
