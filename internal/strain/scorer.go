package strain

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/dailymetrics/internal/caller"
	"github.com/2beens/dailymetrics/internal/clock"
	"github.com/2beens/dailymetrics/internal/daily"
	"github.com/2beens/dailymetrics/internal/rawdata"
	"github.com/2beens/dailymetrics/internal/telemetry/tracing"
	"github.com/2beens/dailymetrics/internal/wellness"

	"go.opentelemetry.io/otel/attribute"
)

type rawReader interface {
	Workouts(ctx context.Context, userID string, date wellness.Date) ([]rawdata.Workout, error)
	SleepSessions(ctx context.Context, userID string, date wellness.Date) ([]rawdata.SleepSession, error)
	IntradayPoints(ctx context.Context, userID string, date wellness.Date, metric string) ([]rawdata.IntradayPoint, error)
}

type dailyWriter interface {
	Upsert(ctx context.Context, userID string, date wellness.Date, patch daily.Patch, now time.Time) (*daily.Row, error)
}

type baselineLookup interface {
	LookupAvg(ctx context.Context, userID string, metric wellness.Metric, date wellness.Date) (*float64, error)
}

type Result struct {
	UserID               string        `json:"userId"`
	Date                 wellness.Date `json:"date"`
	StrainScore          int64         `json:"strainScore"`
	ExerciseScore        float64       `json:"exerciseScore"`
	StressScore          float64       `json:"stressScore"`
	SleepPenalty         float64       `json:"sleepPenalty"`
	RawLoad              float64       `json:"rawLoad"`
	Workouts             int           `json:"workouts"`
	StressAvg            *float64      `json:"stressAvg"`
	SleepMinutes         *float64      `json:"sleepMinutes"`
	BaselineSleepMinutes *float64      `json:"baselineSleepMinutes"`
}

type Scorer struct {
	cfg       Config
	raw       rawReader
	daily     dailyWriter
	baselines baselineLookup
	clock     clock.Clock
}

func NewScorer(cfg Config, raw rawReader, dailyRepo dailyWriter, baselines baselineLookup, clk clock.Clock) *Scorer {
	return &Scorer{
		cfg:       cfg,
		raw:       raw,
		daily:     dailyRepo,
		baselines: baselines,
		clock:     clk,
	}
}

func (s *Scorer) Score(ctx context.Context, c caller.Context, date wellness.Date) (_ *Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.strain.score")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := caller.Validate(c); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, wellness.InvalidInput("date is required")
	}
	userID := c.UserID()
	span.SetAttributes(attribute.String("user_id", userID), attribute.String("date", date.String()))

	workouts, err := s.raw.Workouts(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("strain workouts: %w", err)
	}
	sessions, err := s.raw.SleepSessions(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("strain sleep: %w", err)
	}
	stressPoints, err := s.raw.IntradayPoints(ctx, userID, date, wellness.IntradayStressLevel)
	if err != nil {
		return nil, fmt.Errorf("strain stress: %w", err)
	}
	baselineSleep, err := s.baselines.LookupAvg(ctx, userID, wellness.MetricSleepDurationMin, date)
	if err != nil {
		return nil, err
	}

	in := Inputs{
		Workouts:             workouts,
		StressAvg:            rawdata.StressAverage(stressPoints),
		BaselineSleepMinutes: baselineSleep,
	}
	if longest := rawdata.LongestSession(sessions); longest != nil {
		in.SleepMinutes = wellness.Float(longest.DurationMin)
	}

	b := Compute(s.cfg, in)
	patch := daily.Patch{StrainScore: daily.SetValue(b.Strain)}
	if _, err := s.daily.Upsert(ctx, userID, date, patch, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("store strain score: %w", err)
	}

	return &Result{
		UserID:               userID,
		Date:                 date,
		StrainScore:          b.Strain,
		ExerciseScore:        b.ExerciseScore,
		StressScore:          b.StressScore,
		SleepPenalty:         b.SleepPenalty,
		RawLoad:              b.RawLoad,
		Workouts:             len(workouts),
		StressAvg:            in.StressAvg,
		SleepMinutes:         in.SleepMinutes,
		BaselineSleepMinutes: baselineSleep,
	}, nil
}
