package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"clinic-analytics/internal/auth"
	facts "clinic-analytics/internal/facts/domain"
	kpi "clinic-analytics/internal/kpi/domain"
	"clinic-analytics/internal/observability/metrics"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Result is the dashboard projection for one tenant and filter.
type Result struct {
	Window          facts.Window             `json:"window"`
	Snapshot        kpi.Snapshot             `json:"snapshot"`
	Classifications map[kpi.KPI]kpi.Priority `json:"classifications"`
	Alerts          []kpi.Alert              `json:"alerts"`
}

// Service computes snapshots and alerts from the tenant fact store.
type Service struct {
	facts      facts.Repository
	classifier *kpi.Classifier
	generator  *kpi.AlertGenerator
	clock      Clock
	logger     *zap.Logger
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a snapshot service over immutable threshold tables.
func NewService(repo facts.Repository, tables kpi.Tables, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("kpi: nil fact repository")
	}
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	classifier := kpi.NewClassifier(tables)
	service := &Service{
		facts:      repo,
		classifier: classifier,
		generator:  kpi.NewAlertGenerator(classifier),
		clock:      systemClock{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(service)
		}
	}
	return service, nil
}

// ComputeSnapshotAndAlerts resolves the filter window, builds the snapshot
// over matching facts and derives classifications and alerts. Read only.
func (s *Service) ComputeSnapshotAndAlerts(ctx context.Context, tenant auth.Tenant, filter facts.Filter) (Result, error) {
	start := time.Now()
	result, err := s.compute(ctx, tenant, filter)
	outcome := metrics.ResultSuccess
	if err != nil {
		outcome = metrics.ResultError
	}
	metrics.ObserveSnapshot(outcome, time.Since(start))
	return result, err
}

func (s *Service) compute(ctx context.Context, tenant auth.Tenant, filter facts.Filter) (Result, error) {
	if err := tenant.Validate(); err != nil {
		return Result{}, err
	}
	now := s.clock.Now()
	window, err := facts.ResolveWindow(filter, now)
	if err != nil {
		return Result{}, err
	}
	all, err := s.facts.ListByTenant(ctx, tenant.ID, window.From, window.To)
	if err != nil {
		return Result{}, err
	}
	subset := facts.Apply(all, filter, window)
	snap := kpi.BuildSnapshot(subset)

	classifications, err := s.classify(snap, tenant)
	if err != nil {
		s.logConfigError(tenant, err)
		return Result{}, err
	}
	alerts, err := s.generator.Generate(snap, tenant.Plan, now)
	if err != nil {
		s.logConfigError(tenant, err)
		return Result{}, err
	}
	for _, alert := range alerts {
		metrics.IncAlert(string(alert.Severity), alert.MetricKey)
	}
	if window.Defaulted {
		s.logger.Debug("custom period without bounds, default lookback applied",
			zap.String("tenant_id", tenant.ID))
	}
	return Result{
		Window:          window,
		Snapshot:        snap,
		Classifications: classifications,
		Alerts:          alerts,
	}, nil
}

// Empty data never alarms, so an empty snapshot reports no priority for any KPI.
func (s *Service) classify(snap kpi.Snapshot, tenant auth.Tenant) (map[kpi.KPI]kpi.Priority, error) {
	if !snap.Empty() {
		return s.classifier.ClassifySnapshot(snap, tenant.Plan)
	}
	out := make(map[kpi.KPI]kpi.Priority, len(kpi.TrackedKPIs()))
	for _, key := range kpi.TrackedKPIs() {
		out[key] = kpi.PriorityNone
	}
	return out, nil
}

func (s *Service) logConfigError(tenant auth.Tenant, err error) {
	if !errors.Is(err, kpi.ErrUnknownKPI) {
		return
	}
	s.logger.Error("threshold configuration error",
		zap.String("tenant_id", tenant.ID),
		zap.String("plan", string(tenant.Plan)),
		zap.Error(err))
}
