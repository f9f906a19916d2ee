package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"clinic-analytics/internal/auth"
	"clinic-analytics/internal/observability/metrics"
	rca "clinic-analytics/internal/rca/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Service manages the RCA lifecycle for one tenant per call.
type Service struct {
	repo   rca.Repository
	clock  Clock
	logger *zap.Logger
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

// NewService constructs an RCA service.
func NewService(repo rca.Repository, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("rca: nil repository")
	}
	service := &Service{repo: repo, clock: systemClock{}, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(service)
		}
	}
	return service, nil
}

// Create opens a record in status open and returns it with its assigned id.
func (s *Service) Create(ctx context.Context, tenant auth.Tenant, in rca.CreateInput) (rca.Record, error) {
	record, err := s.create(ctx, tenant, in)
	s.observe("create", err)
	return record, err
}

func (s *Service) create(ctx context.Context, tenant auth.Tenant, in rca.CreateInput) (rca.Record, error) {
	if err := tenant.Validate(); err != nil {
		return rca.Record{}, err
	}
	if err := in.Validate(); err != nil {
		return rca.Record{}, err
	}
	now := s.clock.Now().UTC()
	record, err := s.repo.Create(ctx, rca.Record{
		TenantID:   tenant.ID,
		AlertID:    strings.TrimSpace(in.AlertID),
		Severity:   in.Severity,
		Title:      strings.TrimSpace(in.Title),
		RootCause:  in.RootCause,
		ActionPlan: in.ActionPlan,
		Owner:      in.Owner,
		DueDate:    in.DueDate.UTC(),
		Status:     rca.StatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return rca.Record{}, err
	}
	s.logger.Info("rca created",
		zap.String("tenant_id", tenant.ID),
		zap.Int64("rca_id", record.ID),
		zap.String("alert_id", record.AlertID))
	return record, nil
}

// UpdateStatus applies a patch to a record owned by the tenant. Ids owned by
// other tenants yield rca.ErrNotFound and nothing is written.
func (s *Service) UpdateStatus(ctx context.Context, tenant auth.Tenant, id int64, patch rca.Patch) (rca.Record, error) {
	record, err := s.update(ctx, tenant, id, patch)
	s.observe("update", err)
	return record, err
}

func (s *Service) update(ctx context.Context, tenant auth.Tenant, id int64, patch rca.Patch) (rca.Record, error) {
	if err := tenant.Validate(); err != nil {
		return rca.Record{}, err
	}
	if id <= 0 {
		return rca.Record{}, rca.ErrNotFound
	}
	patch, err := patch.Normalize()
	if err != nil {
		return rca.Record{}, err
	}
	record, err := s.repo.Update(ctx, tenant.ID, id, patch, s.clock.Now().UTC())
	if err != nil {
		return rca.Record{}, err
	}
	s.logger.Info("rca updated",
		zap.String("tenant_id", tenant.ID),
		zap.Int64("rca_id", id),
		zap.String("status", string(record.Status)))
	return record, nil
}

// List returns the tenant's records, optionally filtered by severity and status.
func (s *Service) List(ctx context.Context, tenant auth.Tenant, filter rca.ListFilter) ([]rca.Record, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, tenant.ID, filter)
	s.observe("list", err)
	return list, err
}

func (s *Service) observe(op string, err error) {
	if err != nil {
		metrics.IncRCAOperation(op, metrics.ResultError)
		return
	}
	metrics.IncRCAOperation(op, metrics.ResultSuccess)
}
