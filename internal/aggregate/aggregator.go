// Package aggregate reduces a day's raw provider records into the daily metrics row.
package aggregate

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

	log "github.com/sirupsen/logrus"
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

type Result struct {
	UserID           string        `json:"userId"`
	Date             wellness.Date `json:"date"`
	SleepScore       *float64      `json:"sleepScore"`
	SleepDurationMin *float64      `json:"sleepDurationMin"`
	ActiveCalories   *float64      `json:"activeCalories"`
	DistanceM        *float64      `json:"distanceM"`
	StressAvg        *float64      `json:"stressAvg"`
	Row              *daily.Row    `json:"row"`
}

type Aggregator struct {
	raw   rawReader
	daily dailyWriter
	clock clock.Clock
}

func NewAggregator(raw rawReader, dailyRepo dailyWriter, clk clock.Clock) *Aggregator {
	return &Aggregator{
		raw:   raw,
		daily: dailyRepo,
		clock: clk,
	}
}

func (a *Aggregator) Aggregate(ctx context.Context, c caller.Context, date wellness.Date) (_ *Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.aggregate.daily")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := caller.Validate(c); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, wellness.InvalidInput("date is required")
	}
	userID := c.UserID()
	span.SetAttributes(attribute.String("user_id", userID), attribute.String("date", date.String()))

	sessions, err := a.raw.SleepSessions(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("aggregate sleep: %w", err)
	}
	workouts, err := a.raw.Workouts(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("aggregate workouts: %w", err)
	}
	stressPoints, err := a.raw.IntradayPoints(ctx, userID, date, wellness.IntradayStressLevel)
	if err != nil {
		return nil, fmt.Errorf("aggregate stress: %w", err)
	}

	patch := BuildPatch(sessions, workouts, stressPoints)
	row, err := a.daily.Upsert(ctx, userID, date, patch, a.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("store daily aggregate: %w", err)
	}

	log.Tracef("aggregated [%s] [%s]: %d sleep sessions, %d workouts, %d stress points",
		userID, date, len(sessions), len(workouts), len(stressPoints))

	return &Result{
		UserID:           userID,
		Date:             date,
		SleepScore:       row.SleepScore,
		SleepDurationMin: row.SleepDurationMin,
		ActiveCalories:   row.ActiveCalories,
		DistanceM:        row.DistanceM,
		StressAvg:        row.StressAvg,
		Row:              row,
	}, nil
}

// BuildPatch computes the columns owned by the aggregator. Every one of them is set,
// to null when there is no data, so stale values from an earlier sync do not survive.
func BuildPatch(
	sessions []rawdata.SleepSession,
	workouts []rawdata.Workout,
	stressPoints []rawdata.IntradayPoint,
) daily.Patch {
	patch := daily.Patch{
		SleepScore:       daily.Set[float64](nil),
		SleepDurationMin: daily.Set[float64](nil),
		ActiveCalories:   daily.Set(sumPresent(workouts, func(w rawdata.Workout) *float64 { return w.Calories })),
		DistanceM:        daily.Set(sumPresent(workouts, func(w rawdata.Workout) *float64 { return w.DistanceM })),
		StressAvg:        daily.Set(rawdata.StressAverage(stressPoints)),
	}

	if longest := rawdata.LongestSession(sessions); longest != nil {
		if wellness.FinitePtr(longest.Score) {
			patch.SleepScore = daily.SetValue(wellness.Clamp(*longest.Score, 0, 100))
		}
		patch.SleepDurationMin = daily.SetValue(longest.DurationMin)
	}

	return patch
}

// sumPresent is nil unless at least one workout carries the value.
func sumPresent(workouts []rawdata.Workout, value func(rawdata.Workout) *float64) *float64 {
	var (
		sum   float64
		found bool
	)
	for _, w := range workouts {
		if v := value(w); wellness.FinitePtr(v) {
			sum += *v
			found = true
		}
	}
	if !found {
		return nil
	}
	return wellness.Float(sum)
}
