package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic-analytics/internal/auth"
	exports "clinic-analytics/internal/exports/domain"
	facts "clinic-analytics/internal/facts/domain"
	kpiapp "clinic-analytics/internal/kpi/application"
	"clinic-analytics/internal/observability/metrics"
)

// Report formats.
const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// SnapshotSource computes the dashboard projection a report is rendered from.
type SnapshotSource interface {
	ComputeSnapshotAndAlerts(ctx context.Context, tenant auth.Tenant, filter facts.Filter) (kpiapp.Result, error)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// WindowStatus is the current cadence window with its consumption.
type WindowStatus struct {
	exports.Window
	Used      int64 `json:"used"`
	Remaining int64 `json:"remaining"`
}

// Report is a rendered executive report.
type Report struct {
	ID          string
	Format      string
	ContentType string
	Filename    string
	Window      exports.Window
	Data        []byte
}

// Service issues executive reports under the tier export cadence.
type Service struct {
	gate     *exports.CadenceGate
	counter  exports.Counter
	snapshot SnapshotSource
	clock    Clock
	logger   *zap.Logger
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

// NewService constructs the export service.
func NewService(gate *exports.CadenceGate, counter exports.Counter, snapshot SnapshotSource, opts ...ServiceOption) (*Service, error) {
	if gate == nil {
		return nil, errors.New("exports: nil cadence gate")
	}
	if counter == nil {
		return nil, errors.New("exports: nil counter")
	}
	if snapshot == nil {
		return nil, errors.New("exports: nil snapshot source")
	}
	service := &Service{gate: gate, counter: counter, snapshot: snapshot, clock: systemClock{}, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(service)
		}
	}
	return service, nil
}

// CurrentWindow returns the tenant plan's window with used and remaining exports.
func (s *Service) CurrentWindow(ctx context.Context, tenant auth.Tenant) (WindowStatus, error) {
	if err := tenant.Validate(); err != nil {
		return WindowStatus{}, err
	}
	window, err := s.gate.Window(tenant.Plan, s.clock.Now())
	if err != nil {
		return WindowStatus{}, err
	}
	used, err := s.counter.Used(ctx, tenant.ID, window)
	if err != nil {
		return WindowStatus{}, err
	}
	remaining := int64(window.MaxExports) - used
	if remaining < 0 {
		remaining = 0
	}
	return WindowStatus{Window: window, Used: used, Remaining: remaining}, nil
}

// Export reserves one export in the current window, then renders the report.
// Format and filter are checked before reserving. The reservation is released
// when the limit is exceeded or rendering fails.
func (s *Service) Export(ctx context.Context, tenant auth.Tenant, format string, filter facts.Filter) (Report, error) {
	start := time.Now()
	format = strings.ToLower(strings.TrimSpace(format))
	report, err := s.export(ctx, tenant, format, filter)
	result := metrics.ResultSuccess
	switch {
	case errors.Is(err, exports.ErrLimitReached):
		result = metrics.ResultLimited
	case err != nil:
		result = metrics.ResultError
	}
	metrics.ObserveReportExport(format, result, time.Since(start))
	return report, err
}

func (s *Service) export(ctx context.Context, tenant auth.Tenant, format string, filter facts.Filter) (Report, error) {
	if err := tenant.Validate(); err != nil {
		return Report{}, err
	}
	if format != FormatPDF && format != FormatXLSX {
		return Report{}, fmt.Errorf("%w: %q", exports.ErrInvalidFormat, format)
	}
	now := s.clock.Now().UTC()
	if _, err := facts.ResolveWindow(filter, now); err != nil {
		return Report{}, err
	}
	window, err := s.gate.Window(tenant.Plan, now)
	if err != nil {
		return Report{}, err
	}

	total, err := s.counter.Reserve(ctx, tenant.ID, window)
	if err != nil {
		return Report{}, err
	}
	if total > int64(window.MaxExports) {
		s.release(ctx, tenant, window)
		return Report{}, exports.ErrLimitReached
	}

	report, err := s.render(ctx, tenant, format, filter, window, now)
	if err != nil {
		s.release(ctx, tenant, window)
		return Report{}, err
	}
	s.logger.Info("report exported",
		zap.String("tenant_id", tenant.ID),
		zap.String("report_id", report.ID),
		zap.String("format", format),
		zap.String("window", window.Key))
	return report, nil
}

func (s *Service) render(ctx context.Context, tenant auth.Tenant, format string, filter facts.Filter, window exports.Window, now time.Time) (Report, error) {
	result, err := s.snapshot.ComputeSnapshotAndAlerts(ctx, tenant, filter)
	if err != nil {
		return Report{}, err
	}
	data := ReportData{TenantID: tenant.ID, GeneratedAt: now, Result: result}
	report := Report{
		ID:       uuid.NewString(),
		Format:   format,
		Window:   window,
		Filename: fmt.Sprintf("relatorio-%s-%s.%s", tenant.ID, window.Key, format),
	}
	switch format {
	case FormatPDF:
		report.ContentType = "application/pdf"
		report.Data, err = BuildReportPDF(data)
	default:
		report.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		report.Data, err = BuildReportXLSX(data)
	}
	if err != nil {
		return Report{}, fmt.Errorf("render %s: %w", format, err)
	}
	return report, nil
}

func (s *Service) release(ctx context.Context, tenant auth.Tenant, window exports.Window) {
	if err := s.counter.Release(ctx, tenant.ID, window); err != nil {
		s.logger.Warn("export reservation release failed",
			zap.String("tenant_id", tenant.ID),
			zap.String("window", window.Key),
			zap.Error(err))
	}
}
