// Package pipeline sequences aggregation and scoring over a window of dates for one user.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/dailymetrics/internal/aggregate"
	"github.com/2beens/dailymetrics/internal/baseline"
	"github.com/2beens/dailymetrics/internal/caller"
	"github.com/2beens/dailymetrics/internal/clock"
	"github.com/2beens/dailymetrics/internal/recovery"
	"github.com/2beens/dailymetrics/internal/strain"
	"github.com/2beens/dailymetrics/internal/telemetry/metrics"
	"github.com/2beens/dailymetrics/internal/telemetry/tracing"
	"github.com/2beens/dailymetrics/internal/wellness"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
)

//go:generate mockgen -source=$GOFILE -destination=orchestrator_mock.go -package=pipeline

const (
	StepAggregate = "aggregate-daily"
	StepRecovery  = "compute-recovery"
	StepStrain    = "compute-strain"
	StepBaselines = "compute-baselines"

	StatePending        = "pending"
	StateAggregated     = "aggregated"
	StateRecoveryScored = "recovery_scored"
	StateStrainScored   = "strain_scored"
	failedStatePrefix   = "failed_at_step:"

	DefaultDays          = 5
	MaxRecomputeLastDays = 31
)

type dailyAggregator interface {
	Aggregate(ctx context.Context, c caller.Context, date wellness.Date) (*aggregate.Result, error)
}

type recoveryScorer interface {
	Score(ctx context.Context, c caller.Context, date wellness.Date) (*recovery.Result, error)
}

type strainScorer interface {
	Score(ctx context.Context, c caller.Context, date wellness.Date) (*strain.Result, error)
}

type baselineComputer interface {
	Compute(ctx context.Context, c caller.Context, computedOn wellness.Date, metrics []wellness.Metric) (*baseline.ComputeResult, error)
}

type Request struct {
	Dates             []wellness.Date `json:"dates"`
	RecomputeLastDays *int            `json:"recomputeLastDays"`
	ComputeBaselines  *bool           `json:"computeBaselines"`
}

type StepResult struct {
	Step  string `json:"step"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type DateResult struct {
	Date      wellness.Date     `json:"date"`
	State     string            `json:"state"`
	Steps     []StepResult      `json:"steps"`
	Aggregate *aggregate.Result `json:"aggregate,omitempty"`
	Recovery  *recovery.Result  `json:"recovery,omitempty"`
	Strain    *strain.Result    `json:"strain,omitempty"`
}

type Failure struct {
	Date  wellness.Date `json:"date"`
	Step  string        `json:"step"`
	Error string        `json:"error"`
}

type Result struct {
	OK             bool                    `json:"ok"`
	UserID         string                  `json:"userId"`
	RunID          string                  `json:"runId"`
	PerDateResults []DateResult            `json:"perDateResults"`
	BaselineResult *baseline.ComputeResult `json:"baselineResult"`
	Failures       []Failure               `json:"failures"`
}

type Config struct {
	DefaultDays     int
	BaselineMetrics []wellness.Metric
}

// DefaultBaselineMetrics extends the standard set with the sleep duration strain relies on.
func DefaultBaselineMetrics() []wellness.Metric {
	m := make([]wellness.Metric, 0, len(wellness.DefaultBaselineMetrics)+1)
	m = append(m, wellness.DefaultBaselineMetrics...)
	return append(m, wellness.MetricSleepDurationMin)
}

type Orchestrator struct {
	cfg            Config
	aggregator     dailyAggregator
	recovery       recoveryScorer
	strain         strainScorer
	baselines      baselineComputer
	locker         Locker
	clock          clock.Clock
	metricsManager *metrics.Manager
}

func NewOrchestrator(
	cfg Config,
	aggregator dailyAggregator,
	recoveryScorer recoveryScorer,
	strainScorer strainScorer,
	baselines baselineComputer,
	locker Locker,
	clk clock.Clock,
	metricsManager *metrics.Manager,
) *Orchestrator {
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = DefaultDays
	}
	if len(cfg.BaselineMetrics) == 0 {
		cfg.BaselineMetrics = DefaultBaselineMetrics()
	}
	if locker == nil {
		locker = NopLocker{}
	}
	return &Orchestrator{
		cfg:            cfg,
		aggregator:     aggregator,
		recovery:       recoveryScorer,
		strain:         strainScorer,
		baselines:      baselines,
		locker:         locker,
		clock:          clk,
		metricsManager: metricsManager,
	}
}

// SelectDates resolves the dates a request targets, sorted ascending and without duplicates.
func (o *Orchestrator) SelectDates(req Request) ([]wellness.Date, error) {
	for _, d := range req.Dates {
		if d.IsZero() {
			return nil, wellness.InvalidInput("dates must not contain empty values")
		}
	}
	if len(req.Dates) > 0 {
		return wellness.UniqueSorted(req.Dates), nil
	}

	today := wellness.DateOf(o.clock.Now())
	if req.RecomputeLastDays != nil {
		n := *req.RecomputeLastDays
		if n < 1 || n > MaxRecomputeLastDays {
			return nil, wellness.InvalidInput("recomputeLastDays must be within [1, %d], got %d", MaxRecomputeLastDays, n)
		}
		return wellness.TrailingDays(today, n), nil
	}
	return wellness.TrailingDays(today, o.cfg.DefaultDays), nil
}

// Run never stops at a failed step. Failures are collected in the result, which is
// OK only when none occurred. An error is returned only when the run could not start.
func (o *Orchestrator) Run(ctx context.Context, c caller.Context, req Request) (_ *Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.pipeline.run")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := caller.Validate(c); err != nil {
		return nil, err
	}
	dates, err := o.SelectDates(req)
	if err != nil {
		return nil, err
	}
	userID := c.UserID()
	runID := uuid.NewString()
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("run_id", runID),
		attribute.Int("dates", len(dates)),
	)

	unlock, err := o.locker.Lock(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			o.countRun("rejected")
		}
		return nil, err
	}
	defer func() {
		// a cancelled run must still free the lock
		if unlockErr := unlock(context.WithoutCancel(ctx)); unlockErr != nil {
			if err != nil {
				err = multierr.Append(err, unlockErr)
				return
			}
			log.Errorf("pipeline run [%s] of user [%s]: %s", runID, userID, unlockErr)
		}
	}()

	result := &Result{
		UserID:         userID,
		RunID:          runID,
		PerDateResults: make([]DateResult, 0, len(dates)),
		Failures:       []Failure{},
	}

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline run %s interrupted: %w", runID, err)
		}
		dr := o.runDate(ctx, c, date)
		for _, step := range dr.Steps {
			if !step.OK {
				result.Failures = append(result.Failures, Failure{Date: date, Step: step.Step, Error: step.Error})
			}
		}
		result.PerDateResults = append(result.PerDateResults, dr)
	}

	if req.ComputeBaselines == nil || *req.ComputeBaselines {
		today := wellness.DateOf(o.clock.Now())
		var baselineResult *baseline.ComputeResult
		stepErr := o.timeStep(StepBaselines, func() error {
			var err error
			baselineResult, err = o.baselines.Compute(ctx, c, today, o.cfg.BaselineMetrics)
			return err
		})
		if stepErr != nil {
			result.Failures = append(result.Failures, Failure{Date: today, Step: StepBaselines, Error: stepErr.Error()})
		} else {
			result.BaselineResult = baselineResult
		}
	}

	result.OK = len(result.Failures) == 0
	if result.OK {
		o.countRun("ok")
	} else {
		o.countRun("partial")
	}
	log.Debugf("pipeline run [%s] for user [%s]: %d dates, %d failures", runID, userID, len(dates), len(result.Failures))

	return result, nil
}

func (o *Orchestrator) runDate(ctx context.Context, c caller.Context, date wellness.Date) DateResult {
	dr := DateResult{
		Date:  date,
		State: StatePending,
		Steps: make([]StepResult, 0, 3),
	}

	record := func(step, successState string, stepErr error) {
		if stepErr != nil {
			log.Warnf("pipeline step %s failed for [%s] [%s]: %s", step, c.UserID(), date, stepErr)
			dr.Steps = append(dr.Steps, StepResult{Step: step, Error: stepErr.Error()})
			if !dr.failed() {
				dr.State = failedStatePrefix + step
			}
			return
		}
		dr.Steps = append(dr.Steps, StepResult{Step: step, OK: true})
		if !dr.failed() {
			dr.State = successState
		}
	}

	record(StepAggregate, StateAggregated, o.timeStep(StepAggregate, func() (err error) {
		dr.Aggregate, err = o.aggregator.Aggregate(ctx, c, date)
		return err
	}))
	record(StepRecovery, StateRecoveryScored, o.timeStep(StepRecovery, func() (err error) {
		dr.Recovery, err = o.recovery.Score(ctx, c, date)
		return err
	}))
	record(StepStrain, StateStrainScored, o.timeStep(StepStrain, func() (err error) {
		dr.Strain, err = o.strain.Score(ctx, c, date)
		return err
	}))

	return dr
}

func (dr DateResult) failed() bool {
	return strings.HasPrefix(dr.State, failedStatePrefix)
}

func (o *Orchestrator) timeStep(step string, fn func() error) error {
	start := time.Now()
	err := fn()
	if o.metricsManager != nil {
		outcome := "ok"
		if err != nil {
			outcome = "failed"
		}
		o.metricsManager.CounterPipelineSteps.WithLabelValues(step, outcome).Inc()
		o.metricsManager.HistogramPipelineStep.WithLabelValues(step).Observe(time.Since(start).Seconds())
	}
	return err
}

func (o *Orchestrator) countRun(outcome string) {
	if o.metricsManager != nil {
		o.metricsManager.CounterPipelineRuns.WithLabelValues(outcome).Inc()
	}
}
