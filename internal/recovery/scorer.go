package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/dailymetrics/internal/caller"
	"github.com/2beens/dailymetrics/internal/clock"
	"github.com/2beens/dailymetrics/internal/daily"
	"github.com/2beens/dailymetrics/internal/telemetry/tracing"
	"github.com/2beens/dailymetrics/internal/wellness"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type dailyRepo interface {
	Get(ctx context.Context, userID string, date wellness.Date) (*daily.Row, error)
	Upsert(ctx context.Context, userID string, date wellness.Date, patch daily.Patch, now time.Time) (*daily.Row, error)
}

type baselineLookup interface {
	LookupAvg(ctx context.Context, userID string, metric wellness.Metric, date wellness.Date) (*float64, error)
}

type Result struct {
	UserID        string             `json:"userId"`
	Date          wellness.Date      `json:"date"`
	RecoveryScore int64              `json:"recoveryScore"`
	SleepPenalty  float64            `json:"sleepPenalty"`
	SleepBaseline *float64           `json:"sleepBaseline"`
	Components    map[string]float64 `json:"components"`
	Weights       map[string]float64 `json:"weights"`
	Missing       []string           `json:"missing"`
}

type Scorer struct {
	cfg       Config
	dailyRepo dailyRepo
	baselines baselineLookup
	clock     clock.Clock
}

func NewScorer(cfg Config, dailyRepo dailyRepo, baselines baselineLookup, clk clock.Clock) *Scorer {
	return &Scorer{
		cfg:       cfg,
		dailyRepo: dailyRepo,
		baselines: baselines,
		clock:     clk,
	}
}

func (s *Scorer) Score(ctx context.Context, c caller.Context, date wellness.Date) (_ *Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.recovery.score")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := caller.Validate(c); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, wellness.InvalidInput("date is required")
	}
	userID := c.UserID()
	span.SetAttributes(attribute.String("user_id", userID), attribute.String("date", date.String()))

	row, err := s.dailyRepo.Get(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("read daily row: %w", err)
	}

	baselineOf := make(map[wellness.Metric]*float64, 4)
	for _, metric := range []wellness.Metric{
		wellness.MetricHRV,
		wellness.MetricRestingHR,
		wellness.MetricRespiratoryRate,
		wellness.MetricSleepScore,
	} {
		avg, err := s.baselines.LookupAvg(ctx, userID, metric, date)
		if err != nil {
			return nil, err
		}
		baselineOf[metric] = avg
	}

	breakdown, err := Compute(s.cfg, Inputs{
		HRV:                     row.Value(wellness.MetricHRV),
		HRVBaseline:             baselineOf[wellness.MetricHRV],
		RestingHR:               row.Value(wellness.MetricRestingHR),
		RestingHRBaseline:       baselineOf[wellness.MetricRestingHR],
		RespiratoryRate:         row.Value(wellness.MetricRespiratoryRate),
		RespiratoryRateBaseline: baselineOf[wellness.MetricRespiratoryRate],
		SleepScore:              row.Value(wellness.MetricSleepScore),
	})
	if err != nil {
		log.Debugf("recovery [%s] [%s]: %s", userID, date, err)
		return nil, err
	}

	patch := daily.Patch{RecoveryScore: daily.SetValue(breakdown.Score)}
	if _, err := s.dailyRepo.Upsert(ctx, userID, date, patch, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("store recovery score: %w", err)
	}

	return &Result{
		UserID:        userID,
		Date:          date,
		RecoveryScore: breakdown.Score,
		SleepPenalty:  breakdown.SleepPenalty,
		SleepBaseline: baselineOf[wellness.MetricSleepScore],
		Components:    breakdown.Components,
		Weights:       breakdown.Weights,
		Missing:       breakdown.Missing,
	}, nil
}
