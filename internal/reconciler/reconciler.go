// Package reconciler re-runs the pipeline nightly for every user with an active provider
// connection, so late or corrected provider data is absorbed.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/dailymetrics/internal/caller"
	"github.com/2beens/dailymetrics/internal/clock"
	"github.com/2beens/dailymetrics/internal/pipeline"
	"github.com/2beens/dailymetrics/internal/rawdata"
	"github.com/2beens/dailymetrics/internal/telemetry/metrics"
	"github.com/2beens/dailymetrics/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=reconciler_mock.go -package=reconciler

type connectionLister interface {
	ActiveConnections(ctx context.Context, limit int) ([]rawdata.ProviderConnection, error)
}

type pipelineRunner interface {
	Run(ctx context.Context, c caller.Context, req pipeline.Request) (*pipeline.Result, error)
}

type UserResult struct {
	UserID   string `json:"userId"`
	OK       bool   `json:"ok"`
	RunID    string `json:"runId,omitempty"`
	Failures int    `json:"failures"`
	Error    string `json:"error,omitempty"`
}

type Summary struct {
	UsersProcessed int          `json:"usersProcessed"`
	OKCount        int          `json:"okCount"`
	FailCount      int          `json:"failCount"`
	PerUser        []UserResult `json:"perUser"`
	Truncated      bool         `json:"truncated"`
	StartedAt      time.Time    `json:"startedAt"`
	FinishedAt     time.Time    `json:"finishedAt"`
}

type Reconciler struct {
	cfg            Config
	runAtHour      int
	runAtMinute    int
	connections    connectionLister
	runner         pipelineRunner
	clock          clock.Clock
	metricsManager *metrics.Manager
}

func New(
	cfg Config,
	connections connectionLister,
	runner pipelineRunner,
	clk clock.Clock,
	metricsManager *metrics.Manager,
) (*Reconciler, error) {
	if connections == nil || runner == nil || clk == nil {
		return nil, errors.New("reconciler: connections, runner and clock are required")
	}
	cfg = cfg.withDefaults()
	hour, minute, err := parseRunAt(cfg.RunAt)
	if err != nil {
		return nil, err
	}
	return &Reconciler{
		cfg:            cfg,
		runAtHour:      hour,
		runAtMinute:    minute,
		connections:    connections,
		runner:         runner,
		clock:          clk,
		metricsManager: metricsManager,
	}, nil
}

// RunOnce only fails when the users cannot be listed. Per-user failures end up in the summary.
func (r *Reconciler) RunOnce(ctx context.Context) (_ *Summary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.reconciler.run")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	summary := &Summary{
		PerUser:   []UserResult{},
		StartedAt: r.clock.Now(),
	}
	start := time.Now()

	connections, err := r.connections.ActiveConnections(ctx, r.cfg.MaxUsers)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	users := uniqueUsers(connections, r.cfg.MaxUsers)
	span.SetAttributes(attribute.Int("users", len(users)))

	for _, userID := range users {
		if ctx.Err() != nil {
			log.Warnf("reconciler run interrupted after %d of %d users: %s", summary.UsersProcessed, len(users), ctx.Err())
			break
		}

		res := r.reconcileUser(ctx, userID)
		summary.UsersProcessed++
		if res.OK {
			summary.OKCount++
			r.countUser("ok")
		} else {
			summary.FailCount++
			r.countUser("failed")
		}
		if len(summary.PerUser) < r.cfg.MaxPerUserResults {
			summary.PerUser = append(summary.PerUser, res)
		} else {
			summary.Truncated = true
		}
	}

	summary.FinishedAt = r.clock.Now()
	if r.metricsManager != nil {
		r.metricsManager.HistogramReconcilerDuration.Observe(time.Since(start).Seconds())
		r.metricsManager.GaugeReconcilerLastOK.Set(float64(summary.FinishedAt.Unix()))
	}
	return summary, nil
}

func (r *Reconciler) reconcileUser(ctx context.Context, userID string) (result UserResult) {
	result.UserID = userID
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("reconcile user [%s] panicked: %v", userID, rec)
			result.OK = false
			result.Error = fmt.Sprintf("panic: %v", rec)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.UserTimeout)
	defer cancel()

	days := r.cfg.WindowDays
	res, err := r.runner.Run(ctx, caller.Service{OnBehalfOf: userID}, pipeline.Request{RecomputeLastDays: &days})
	if err != nil {
		log.Warnf("reconcile user [%s]: %s", userID, err)
		result.Error = err.Error()
		return result
	}

	result.OK = res.OK
	result.RunID = res.RunID
	result.Failures = len(res.Failures)
	if !res.OK {
		result.Error = fmt.Sprintf("%d failed steps", len(res.Failures))
	}
	return result
}

// RunForever runs RunOnce every day at the configured time until ctx is done.
func (r *Reconciler) RunForever(ctx context.Context) {
	for {
		now := r.clock.Now()
		next := r.NextRun(now)
		log.Infof("reconciler: next run at %s", next.Format(time.RFC3339))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Debugln("reconciler: stopped")
			return
		case <-timer.C:
		}

		summary, err := r.RunOnce(ctx)
		if err != nil {
			log.Errorf("reconciler run failed: %s", err)
			continue
		}
		log.Infof("reconciler run done: %d users, %d ok, %d failed, took %s",
			summary.UsersProcessed, summary.OKCount, summary.FailCount, summary.FinishedAt.Sub(summary.StartedAt))
	}
}

// NextRun is the first run time strictly after now.
func (r *Reconciler) NextRun(now time.Time) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), r.runAtHour, r.runAtMinute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (r *Reconciler) countUser(outcome string) {
	if r.metricsManager != nil {
		r.metricsManager.CounterReconciledUsers.WithLabelValues(outcome).Inc()
	}
}

func uniqueUsers(connections []rawdata.ProviderConnection, limit int) []string {
	seen := make(map[string]bool, len(connections))
	users := make([]string, 0, len(connections))
	for _, c := range connections {
		if c.UserID == "" || seen[c.UserID] {
			continue
		}
		seen[c.UserID] = true
		users = append(users, c.UserID)
	}
	if len(users) > limit {
		users = users[:limit]
	}
	return users
}
