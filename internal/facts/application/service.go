package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"clinic-analytics/internal/auth"
	facts "clinic-analytics/internal/facts/domain"
	"clinic-analytics/internal/observability/metrics"
)

// MaxBatchSize bounds a single ingest call.
const MaxBatchSize = 5000

// Service appends facts to the tenant store.
type Service struct {
	repo   facts.Repository
	logger *zap.Logger
}

// NewService constructs an ingest service.
func NewService(repo facts.Repository, logger *zap.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("facts: nil repository")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}, nil
}

// Ingest validates the batch and appends it. Nothing is stored when any fact fails.
func (s *Service) Ingest(ctx context.Context, tenant auth.Tenant, list []facts.Fact) (int, error) {
	start := time.Now()
	count, err := s.ingest(ctx, tenant, list)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveFactIngest(result, count, time.Since(start))
	return count, err
}

func (s *Service) ingest(ctx context.Context, tenant auth.Tenant, list []facts.Fact) (int, error) {
	if err := tenant.Validate(); err != nil {
		return 0, err
	}
	if len(list) == 0 {
		return 0, fmt.Errorf("%w: empty batch", facts.ErrInvalidFact)
	}
	if len(list) > MaxBatchSize {
		return 0, fmt.Errorf("%w: batch exceeds %d facts", facts.ErrInvalidFact, MaxBatchSize)
	}
	normalized := make([]facts.Fact, 0, len(list))
	for i, fact := range list {
		if err := fact.Validate(); err != nil {
			return 0, fmt.Errorf("fact %d: %w", i, err)
		}
		normalized = append(normalized, fact.Normalize())
	}
	if err := s.repo.Append(ctx, tenant.ID, normalized); err != nil {
		s.logger.Error("fact append failed", zap.String("tenant_id", tenant.ID), zap.Error(err))
		return 0, err
	}
	s.logger.Debug("facts appended", zap.String("tenant_id", tenant.ID), zap.Int("count", len(normalized)))
	return len(normalized), nil
}
