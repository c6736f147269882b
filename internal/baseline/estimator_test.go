package baseline

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/2beens/dailymetrics/internal/caller"
	"github.com/2beens/dailymetrics/internal/daily"
	"github.com/2beens/dailymetrics/internal/telemetry/metrics"
	"github.com/2beens/dailymetrics/internal/wellness"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "user-1"

var ref = wellness.MustParseDate("2024-02-28")

func TestStats(t *testing.T) {
	avg, stddev, n := Stats(nil)
	assert.Nil(t, avg)
	assert.Nil(t, stddev)
	assert.Equal(t, 0, n)

	avg, stddev, n = Stats([]float64{42})
	require.NotNil(t, avg)
	assert.Equal(t, 42.0, *avg)
	assert.Nil(t, stddev)
	assert.Equal(t, 1, n)

	avg, stddev, n = Stats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NotNil(t, avg)
	require.NotNil(t, stddev)
	assert.Equal(t, 5.0, *avg)
	// sample stddev: sqrt(32/7)
	assert.InDelta(t, math.Sqrt(32.0/7.0), *stddev, 1e-9)
	assert.Equal(t, 8, n)
}

func TestWindow(t *testing.T) {
	from, to := Window(ref)
	assert.Equal(t, "2024-02-01", from.String())
	assert.Equal(t, "2024-02-28", to.String())
}

func newTestEstimator() (*Estimator, *daily.MemRepo, *MemRepo) {
	dailyRepo := daily.NewMemRepo()
	repo := NewMemRepo()
	return NewEstimator(dailyRepo, repo, nil, nil), dailyRepo, repo
}

func TestEstimator_Compute_WindowAndNulls(t *testing.T) {
	ctx := context.Background()
	est, dailyRepo, repo := newTestEstimator()

	// outside the window (ref-28) and after ref: ignored
	dailyRepo.Put(daily.Row{UserID: testUser, Date: ref.AddDays(-28), HRVMs: wellness.Float(1000)})
	dailyRepo.Put(daily.Row{UserID: testUser, Date: ref.AddDays(1), HRVMs: wellness.Float(1000)})
	// window edges are included
	dailyRepo.Put(daily.Row{UserID: testUser, Date: ref.AddDays(-27), HRVMs: wellness.Float(40), Steps: wellness.Int(8000)})
	dailyRepo.Put(daily.Row{UserID: testUser, Date: ref, HRVMs: wellness.Float(60)})
	// null hrv in the middle is excluded, not counted as zero
	dailyRepo.Put(daily.Row{UserID: testUser, Date: ref.AddDays(-10), RestingHR: wellness.Float(55)})
	// other users do not leak in
	dailyRepo.Put(daily.Row{UserID: "other", Date: ref, HRVMs: wellness.Float(5)})

	res, err := est.Compute(ctx, caller.Authenticated{User: testUser}, ref, []wellness.Metric{
		wellness.MetricHRV,
		wellness.MetricSteps,
		wellness.MetricSpO2,
	})
	require.NoError(t, err)
	require.Len(t, res.Results, 3)
	assert.Equal(t, ref, res.ComputedOn)

	hrv := res.Results[0]
	assert.Equal(t, wellness.MetricHRV, hrv.Metric)
	assert.Equal(t, 2, hrv.N)
	require.NotNil(t, hrv.Avg)
	assert.Equal(t, 50.0, *hrv.Avg)
	require.NotNil(t, hrv.Stddev)
	assert.InDelta(t, math.Sqrt(200), *hrv.Stddev, 1e-9)

	steps := res.Results[1]
	assert.Equal(t, 1, steps.N)
	assert.Equal(t, 8000.0, *steps.Avg)
	assert.Nil(t, steps.Stddev)

	spo2 := res.Results[2]
	assert.Equal(t, 0, spo2.N)
	assert.Nil(t, spo2.Avg)
	assert.Nil(t, spo2.Stddev)

	assert.Equal(t, 3, repo.Count())
}

func TestEstimator_Compute_DefaultMetricsAndOverwrite(t *testing.T) {
	ctx := context.Background()
	est, dailyRepo, repo := newTestEstimator()
	c := caller.Service{OnBehalfOf: testUser}

	dailyRepo.Put(daily.Row{UserID: testUser, Date: ref, SleepScore: wellness.Float(80)})
	res, err := est.Compute(ctx, c, ref, nil)
	require.NoError(t, err)
	assert.Len(t, res.Results, len(wellness.DefaultBaselineMetrics))
	assert.Equal(t, len(wellness.DefaultBaselineMetrics), repo.Count())

	dailyRepo.Put(daily.Row{UserID: testUser, Date: ref.AddDays(-1), SleepScore: wellness.Float(60)})
	_, err = est.Compute(ctx, c, ref, nil)
	require.NoError(t, err)
	assert.Equal(t, len(wellness.DefaultBaselineMetrics), repo.Count(), "recompute must overwrite")

	row, err := est.Lookup(ctx, testUser, wellness.MetricSleepScore, ref)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 70.0, *row.Avg)
	assert.Equal(t, 2, row.N)
}

func TestEstimator_Compute_InvalidInput(t *testing.T) {
	est, _, _ := newTestEstimator()
	_, err := est.Compute(context.Background(), nil, ref, nil)
	assert.ErrorIs(t, err, wellness.ErrInvalidInput)

	_, err = est.Compute(context.Background(), caller.Authenticated{User: testUser}, wellness.Date{}, nil)
	assert.ErrorIs(t, err, wellness.ErrInvalidInput)
}

func TestEstimator_Compute_DataAccessFailure(t *testing.T) {
	est, _, repo := newTestEstimator()
	repo.Err = errors.New("connection reset")

	_, err := est.Compute(context.Background(), caller.Authenticated{User: testUser}, ref, nil)
	assert.ErrorIs(t, err, wellness.ErrDataAccess)
}

func TestEstimator_Lookup_MostRecentOnOrBefore(t *testing.T) {
	ctx := context.Background()
	est, _, repo := newTestEstimator()

	for _, r := range []Row{
		{UserID: testUser, Metric: wellness.MetricHRV, ComputedOn: ref.AddDays(-10), Avg: wellness.Float(40)},
		{UserID: testUser, Metric: wellness.MetricHRV, ComputedOn: ref.AddDays(-3), Avg: wellness.Float(45)},
		{UserID: testUser, Metric: wellness.MetricHRV, ComputedOn: ref.AddDays(2), Avg: wellness.Float(99)},
	} {
		require.NoError(t, repo.Upsert(ctx, r))
	}

	row, err := est.Lookup(ctx, testUser, wellness.MetricHRV, ref)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 45.0, *row.Avg)

	row, err = est.Lookup(ctx, testUser, wellness.MetricHRV, ref.AddDays(-5))
	require.NoError(t, err)
	assert.Equal(t, 40.0, *row.Avg)

	row, err = est.Lookup(ctx, testUser, wellness.MetricHRV, ref.AddDays(-11))
	require.NoError(t, err)
	assert.Nil(t, row)

	avg, err := est.LookupAvg(ctx, testUser, wellness.MetricRestingHR, ref)
	require.NoError(t, err)
	assert.Nil(t, avg)
}

func TestEstimator_Lookup_Cache(t *testing.T) {
	ctx := context.Background()
	dailyRepo := daily.NewMemRepo()
	repo := NewMemRepo()
	metricsManager := metrics.NewTestManager()
	est := NewEstimator(dailyRepo, repo, NewLookupCache(1, time.Minute), metricsManager)

	require.NoError(t, repo.Upsert(ctx, Row{UserID: testUser, Metric: wellness.MetricHRV, ComputedOn: ref, Avg: wellness.Float(50), N: 3}))

	for i := 0; i < 3; i++ {
		row, err := est.Lookup(ctx, testUser, wellness.MetricHRV, ref)
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, 50.0, *row.Avg)
		assert.Equal(t, testUser, row.UserID)
	}
	assert.Equal(t, 1, repo.Lookups())

	// misses are cached too
	for i := 0; i < 2; i++ {
		row, err := est.Lookup(ctx, testUser, wellness.MetricSpO2, ref)
		require.NoError(t, err)
		assert.Nil(t, row)
	}
	assert.Equal(t, 2, repo.Lookups())
	assert.Equal(t, 3.0, testutil.ToFloat64(metricsManager.CounterBaselineCache.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metricsManager.CounterBaselineCache.WithLabelValues("miss")))

	// recompute invalidates the user's cached lookups
	dailyRepo.Put(daily.Row{UserID: testUser, Date: ref, HRVMs: wellness.Float(70)})
	_, err := est.Compute(ctx, caller.Authenticated{User: testUser}, ref, []wellness.Metric{wellness.MetricHRV})
	require.NoError(t, err)

	row, err := est.Lookup(ctx, testUser, wellness.MetricHRV, ref)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 70.0, *row.Avg)
	assert.Equal(t, 3, repo.Lookups())
}
