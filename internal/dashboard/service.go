package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bizledger/bizledger/internal/billing"
	"github.com/bizledger/bizledger/internal/platform/httpx"
	"github.com/bizledger/bizledger/internal/snapshot"
)

// SnapshotLoader provides the owner's records.
type SnapshotLoader interface {
	Load(ctx context.Context, owner string) (snapshot.Snapshot, error)
}

// Options configures the dashboard service.
type Options struct {
	Location    *time.Location
	AlertWindow time.Duration
	Clock       func() time.Time
	Logger      *slog.Logger
}

// Service computes dashboard figures on demand.
type Service struct {
	loader   SnapshotLoader
	location *time.Location
	window   time.Duration
	clock    func() time.Time
	logger   *slog.Logger
}

// NewService constructs the dashboard service.
func NewService(loader SnapshotLoader, opts Options) *Service {
	s := &Service{
		loader:   loader,
		location: opts.Location,
		window:   opts.AlertWindow,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.window <= 0 {
		s.window = billing.DefaultAlertWindow
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Now returns the service clock in the configured location.
func (s *Service) Now() time.Time {
	return s.clock().In(s.location)
}

// ParsePeriod reads month (1-12) and year query values. Missing values
// default to the current month and year.
func (s *Service) ParsePeriod(month, year string) (billing.Period, error) {
	now := s.Now()
	m, y := int(now.Month()), now.Year()
	var err error
	if v := strings.TrimSpace(month); v != "" {
		if m, err = strconv.Atoi(v); err != nil {
			return billing.Period{}, fmt.Errorf("%w: month must be a number", httpx.ErrValidation)
		}
	}
	if v := strings.TrimSpace(year); v != "" {
		if y, err = strconv.Atoi(v); err != nil {
			return billing.Period{}, fmt.Errorf("%w: year must be a number", httpx.ErrValidation)
		}
	}
	p, err := billing.NewPeriod(y, time.Month(m), s.location)
	if err != nil {
		return billing.Period{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	return p, nil
}

// Metrics computes the dashboard for one month.
func (s *Service) Metrics(ctx context.Context, owner string, period billing.Period) (Metrics, error) {
	snap, err := s.loader.Load(ctx, owner)
	if err != nil {
		return Metrics{}, fmt.Errorf("dashboard metrics: %w", err)
	}
	m := Compute(Input{
		Sales:       snap.Sales,
		Products:    snap.Products,
		Period:      period,
		Now:         s.Now(),
		AlertWindow: s.window,
	})
	s.logger.Debug("dashboard computed",
		slog.String("owner", owner),
		slog.String("period", m.Period),
		slog.Int("sales", m.SalesCount),
		slog.Int("alerts", len(m.Alerts)),
	)
	return m, nil
}

// Alerts lists every overdue parcel, most overdue first.
func (s *Service) Alerts(ctx context.Context, owner string) ([]billing.Alert, error) {
	snap, err := s.loader.Load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("dashboard alerts: %w", err)
	}
	return billing.OverdueList(snap.Sales, s.Now()), nil
}

// Report bundles what the exports render.
type Report struct {
	Owner   string
	Metrics Metrics
	Sales   []billing.Sale
}

// Report loads the month metrics and its sales for export.
func (s *Service) Report(ctx context.Context, owner string, period billing.Period) (Report, error) {
	snap, err := s.loader.Load(ctx, owner)
	if err != nil {
		return Report{}, fmt.Errorf("dashboard report: %w", err)
	}
	now := s.Now()
	return Report{
		Owner: owner,
		Metrics: Compute(Input{
			Sales:       snap.Sales,
			Products:    snap.Products,
			Period:      period,
			Now:         now,
			AlertWindow: s.window,
		}),
		Sales: SalesIn(snap.Sales, period),
	}, nil
}
