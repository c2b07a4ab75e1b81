package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/bizledger/bizledger/internal/billing"
	jobmetrics "github.com/bizledger/bizledger/internal/jobs"
	"github.com/bizledger/bizledger/internal/snapshot"
)

// OwnerLister enumerates every owner with stored records.
type OwnerLister interface {
	ListOwners(ctx context.Context) ([]string, error)
}

// SnapshotLoader provides an owner's records.
type SnapshotLoader interface {
	Load(ctx context.Context, owner string) (snapshot.Snapshot, error)
}

// ReminderEnqueuer queues an overdue digest.
type ReminderEnqueuer interface {
	EnqueueReminder(ctx context.Context, payload RemindPayload) error
}

// ReceivablesScanJob classifies open parcels for every owner, publishes the
// totals and queues a reminder for each owner with overdue parcels.
type ReceivablesScanJob struct {
	Owners   OwnerLister
	Loader   SnapshotLoader
	Enqueuer ReminderEnqueuer
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	Window   time.Duration
	// Parallel bounds concurrent snapshot loads.
	Parallel int
	clock    func() time.Time
}

// NewReceivablesScanJob initialises the scan handler.
func NewReceivablesScanJob(owners OwnerLister, loader SnapshotLoader, enqueuer ReminderEnqueuer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReceivablesScanJob {
	return &ReceivablesScanJob{
		Owners:   owners,
		Loader:   loader,
		Enqueuer: enqueuer,
		Logger:   logger,
		Metrics:  metrics,
		Window:   billing.DefaultAlertWindow,
		Parallel: 4,
		clock:    time.Now,
	}
}

// ScanResult summarises one run.
type ScanResult struct {
	jobmetrics.ReceivablesScan
	Reminders int
	Failed    []string
}

// Handle executes the scan.
func (j *ReceivablesScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Owners == nil || j.Loader == nil {
		return errors.New("receivables scan: handler not configured")
	}
	var payload ScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("receivables scan: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	_, err := j.Run(ctx, payload)
	return err
}

// Run scans every owner. Owners whose snapshot cannot be loaded are skipped
// and reported in the joined error.
func (j *ReceivablesScanJob) Run(ctx context.Context, payload ScanPayload) (result ScanResult, err error) {
	tracker := j.Metrics.Track(TaskReceivablesScan)
	defer func() { err = tracker.End(err) }()

	window := j.Window
	if payload.WindowHours > 0 {
		window = time.Duration(payload.WindowHours) * time.Hour
	}
	if window <= 0 {
		window = billing.DefaultAlertWindow
	}
	now := j.now()
	logger := j.logger()

	owners, err := j.Owners.ListOwners(ctx)
	if err != nil {
		return ScanResult{}, fmt.Errorf("receivables scan: list owners: %w", err)
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	result.Owners = len(owners)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.parallel())
	for _, owner := range owners {
		owner := owner
		g.Go(func() error {
			snap, err := j.Loader.Load(gctx, owner)
			if err != nil {
				logger.Warn("snapshot load failed", slog.String("owner", owner), slog.Any("error", err))
				mu.Lock()
				result.Failed = append(result.Failed, owner)
				errs = append(errs, fmt.Errorf("owner %s: %w", owner, err))
				mu.Unlock()
				return nil
			}
			c := billing.ClassifyWithin(snap.Sales, now, window)
			reminded := false
			if len(c.Overdue) > 0 && j.Enqueuer != nil {
				payload := RemindPayload{
					Owner:         owner,
					GeneratedAt:   now,
					OverdueAmount: c.OverdueAmount(),
					Parcels:       c.Overdue,
				}
				if err := j.Enqueuer.EnqueueReminder(gctx, payload); err != nil {
					logger.Warn("enqueue reminder failed", slog.String("owner", owner), slog.Any("error", err))
				} else {
					reminded = true
				}
			}
			mu.Lock()
			result.Overdue += len(c.Overdue)
			result.OverdueAmount += c.OverdueAmount()
			result.Upcoming += len(c.Upcoming)
			if reminded {
				result.Reminders++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	result.OverdueAmount = billing.RoundCents(result.OverdueAmount)

	j.Metrics.ObserveScan(result.ReceivablesScan)
	j.Metrics.AddReminders(result.Reminders)
	logger.Info("receivables scan completed",
		slog.Int("owners", result.Owners),
		slog.Int("overdue", result.Overdue),
		slog.Float64("overdue_amount", result.OverdueAmount),
		slog.Int("upcoming", result.Upcoming),
		slog.Int("reminders", result.Reminders),
		slog.Int("failed", len(result.Failed)),
		slog.Duration("duration", time.Since(now)),
	)
	return result, errors.Join(errs...)
}

func (j *ReceivablesScanJob) parallel() int {
	if j.Parallel > 0 {
		return j.Parallel
	}
	return 1
}

func (j *ReceivablesScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReceivablesScan))
	}
	return slog.Default().With(slog.String("job", TaskReceivablesScan))
}

func (j *ReceivablesScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}

// MoneyFormatter renders amounts for humans.
type MoneyFormatter interface {
	Format(v float64) string
}

// ReminderJob delivers overdue digests. Delivery is a structured log entry
// per owner and parcel.
type ReminderJob struct {
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	Money    MoneyFormatter
	Location *time.Location
}

// NewReminderJob initialises the reminder handler. money may be nil.
func NewReminderJob(logger *slog.Logger, metrics *jobmetrics.Metrics, money MoneyFormatter, loc *time.Location) *ReminderJob {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderJob{Logger: logger, Metrics: metrics, Money: money, Location: loc}
}

// Handle logs the digest carried by t.
func (j *ReminderJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	tracker := j.Metrics.Track(TaskReceivablesRemind)
	defer func() { err = tracker.End(err) }()

	var payload RemindPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("receivables remind: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Owner == "" {
		return fmt.Errorf("receivables remind: missing owner: %w", asynq.SkipRetry)
	}
	logger := j.logger().With(slog.String("owner", payload.Owner))
	logger.Info("overdue reminder",
		slog.Int("parcels", len(payload.Parcels)),
		slog.String("amount", j.format(payload.OverdueAmount)),
	)
	for _, p := range payload.Parcels {
		logger.Info("overdue parcel",
			slog.String("sale_id", p.SaleID),
			slog.String("customer", p.CustomerName),
			slog.String("parcel", fmt.Sprintf("%d/%d", p.InstallmentNumber, p.TotalInstallments)),
			slog.String("value", j.format(p.Value)),
			slog.String("due", p.DueDate.In(j.location()).Format("2006-01-02")),
			slog.Int("days_overdue", -p.DaysUntil),
		)
	}
	return nil
}

func (j *ReminderJob) format(v float64) string {
	if j.Money == nil {
		return fmt.Sprintf("%.2f", v)
	}
	return j.Money.Format(v)
}

func (j *ReminderJob) location() *time.Location {
	if j.Location == nil {
		return time.Local
	}
	return j.Location
}

func (j *ReminderJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReceivablesRemind))
	}
	return slog.Default().With(slog.String("job", TaskReceivablesRemind))
}
