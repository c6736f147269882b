package baseline

import (
	"context"
	"fmt"

	"github.com/2beens/dailymetrics/internal/caller"
	"github.com/2beens/dailymetrics/internal/daily"
	"github.com/2beens/dailymetrics/internal/telemetry/metrics"
	"github.com/2beens/dailymetrics/internal/telemetry/tracing"
	"github.com/2beens/dailymetrics/internal/wellness"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type dailyRangeReader interface {
	ListRange(ctx context.Context, userID string, from, to wellness.Date) ([]daily.Row, error)
}

type baselineRepo interface {
	Upsert(ctx context.Context, row Row) error
	LatestOnOrBefore(ctx context.Context, userID string, metric wellness.Metric, date wellness.Date) (*Row, error)
}

type ComputeResult struct {
	UserID     string        `json:"userId"`
	ComputedOn wellness.Date `json:"computedOn"`
	Results    []Row         `json:"results"`
}

type Estimator struct {
	dailyRepo      dailyRangeReader
	repo           baselineRepo
	cache          *LookupCache
	metricsManager *metrics.Manager
}

// NewEstimator builds an Estimator. cache and metricsManager may be nil.
func NewEstimator(
	dailyRepo dailyRangeReader,
	repo baselineRepo,
	cache *LookupCache,
	metricsManager *metrics.Manager,
) *Estimator {
	return &Estimator{
		dailyRepo:      dailyRepo,
		repo:           repo,
		cache:          cache,
		metricsManager: metricsManager,
	}
}

// Compute writes one baseline row per metric for the window ending at computedOn.
// An empty metrics list means the default set.
func (e *Estimator) Compute(
	ctx context.Context,
	c caller.Context,
	computedOn wellness.Date,
	metricNames []wellness.Metric,
) (_ *ComputeResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.baseline.compute")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := caller.Validate(c); err != nil {
		return nil, err
	}
	if computedOn.IsZero() {
		return nil, wellness.InvalidInput("computedOn is required")
	}
	if len(metricNames) == 0 {
		metricNames = wellness.DefaultBaselineMetrics
	}
	userID := c.UserID()
	span.SetAttributes(attribute.String("user_id", userID), attribute.String("computed_on", computedOn.String()))

	from, to := Window(computedOn)
	rows, err := e.dailyRepo.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("read daily window: %w", err)
	}

	if e.cache != nil {
		defer e.cache.Invalidate(userID)
	}

	result := &ComputeResult{
		UserID:     userID,
		ComputedOn: computedOn,
		Results:    make([]Row, 0, len(metricNames)),
	}
	for _, metric := range metricNames {
		values := make([]float64, 0, len(rows))
		for i := range rows {
			if v := rows[i].Value(metric); wellness.FinitePtr(v) {
				values = append(values, *v)
			}
		}

		avg, stddev, n := Stats(values)
		row := Row{
			UserID:     userID,
			Metric:     metric,
			ComputedOn: computedOn,
			Avg:        avg,
			Stddev:     stddev,
			N:          n,
		}
		if err := e.repo.Upsert(ctx, row); err != nil {
			return nil, fmt.Errorf("store baseline %s: %w", metric, err)
		}
		result.Results = append(result.Results, row)
	}

	log.Debugf("baselines computed for user [%s] on [%s]: %d metrics", userID, computedOn, len(result.Results))
	return result, nil
}

// Lookup returns the most recent baseline computed on or before date, or nil when none exists.
func (e *Estimator) Lookup(ctx context.Context, userID string, metric wellness.Metric, date wellness.Date) (*Row, error) {
	if e.cache != nil {
		if row, found := e.cache.Get(userID, metric, date); found {
			e.countCache("hit")
			return row, nil
		}
		e.countCache("miss")
	}

	row, err := e.repo.LatestOnOrBefore(ctx, userID, metric, date)
	if err != nil {
		return nil, fmt.Errorf("lookup baseline %s: %w", metric, err)
	}

	if e.cache != nil {
		e.cache.Set(userID, metric, date, row)
	}
	return row, nil
}

// LookupAvg is Lookup reduced to the baseline mean.
func (e *Estimator) LookupAvg(ctx context.Context, userID string, metric wellness.Metric, date wellness.Date) (*float64, error) {
	row, err := e.Lookup(ctx, userID, metric, date)
	if err != nil || row == nil {
		return nil, err
	}
	return row.Avg, nil
}

func (e *Estimator) countCache(result string) {
	if e.metricsManager != nil {
		e.metricsManager.CounterBaselineCache.WithLabelValues(result).Inc()
	}
}
