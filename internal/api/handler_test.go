package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2beens/dailymetrics/internal/aggregate"
	"github.com/2beens/dailymetrics/internal/baseline"
	"github.com/2beens/dailymetrics/internal/caller"
	"github.com/2beens/dailymetrics/internal/clock"
	"github.com/2beens/dailymetrics/internal/daily"
	"github.com/2beens/dailymetrics/internal/pipeline"
	"github.com/2beens/dailymetrics/internal/rawdata"
	"github.com/2beens/dailymetrics/internal/reconciler"
	"github.com/2beens/dailymetrics/internal/recovery"
	"github.com/2beens/dailymetrics/internal/strain"
	"github.com/2beens/dailymetrics/internal/telemetry/metrics"
	"github.com/2beens/dailymetrics/internal/wellness"

	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	testNow  = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	testDate = wellness.MustParseDate("2024-03-09")
	asUser   = caller.Principal{UserID: "user-1"}
	asOp     = caller.Principal{Operator: true}
	nobody   = caller.Principal{}
)

type handlerMocks struct {
	aggregator *MockdailyAggregator
	recovery   *MockrecoveryScorer
	strain     *MockstrainScorer
	baselines  *MockbaselineComputer
	pipeline   *MockpipelineRunner
	reconciler *MockreconcileRunner
}

func newTestHandler(t *testing.T) (*Handler, *handlerMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := &handlerMocks{
		aggregator: NewMockdailyAggregator(ctrl),
		recovery:   NewMockrecoveryScorer(ctrl),
		strain:     NewMockstrainScorer(ctrl),
		baselines:  NewMockbaselineComputer(ctrl),
		pipeline:   NewMockpipelineRunner(ctrl),
		reconciler: NewMockreconcileRunner(ctrl),
	}
	h := NewHandler(m.aggregator, m.recovery, m.strain, m.baselines, m.pipeline, m.reconciler, clock.NewFakeClock(testNow))
	return h, m
}

// withPrincipal stands in for the auth middleware.
func withPrincipal(p caller.Principal) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !p.IsZero() {
				r = r.WithContext(caller.WithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newTestRouter(h *Handler, p caller.Principal) *mux.Router {
	r := mux.NewRouter()
	r.Use(withPrincipal(p))
	h.SetupRoutes(r, nil, 0, nil)
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

func TestHandler_Health(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := serve(newTestRouter(h, nobody), "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestHandler_Aggregate(t *testing.T) {
	h, m := newTestHandler(t)
	m.aggregator.EXPECT().
		Aggregate(gomock.Any(), caller.Authenticated{User: "user-1"}, testDate).
		Return(&aggregate.Result{
			UserID:           "user-1",
			Date:             testDate,
			SleepScore:       wellness.Float(81),
			SleepDurationMin: wellness.Float(452),
		}, nil)

	rr := serve(newTestRouter(h, asUser), "POST", "/daily/aggregate", `{"date":"2024-03-09"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decode(t, rr)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "2024-03-09", body["date"])
	assert.Equal(t, "user-1", body["userId"])
	assert.Equal(t, 81.0, body["sleepScore"])
	assert.Equal(t, 452.0, body["sleepDurationMin"])
	// no data is null, not zero
	assert.Contains(t, body, "activeCalories")
	assert.Nil(t, body["activeCalories"])
}

func TestHandler_Recovery_InsufficientData(t *testing.T) {
	h, m := newTestHandler(t)
	m.recovery.EXPECT().
		Score(gomock.Any(), caller.Service{OnBehalfOf: "user-7"}, testDate).
		Return(nil, &wellness.InsufficientDataError{Missing: []string{"hrv_ms", "resting_hr"}})

	rr := serve(newTestRouter(h, asOp), "POST", "/daily/recovery", `{"date":"2024-03-09","userId":"user-7"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.JSONEq(t,
		`{"ok":false,"error":"insufficient data: missing [hrv_ms, resting_hr]","missing":["hrv_ms","resting_hr"]}`,
		rr.Body.String(),
	)
}

func TestHandler_Strain(t *testing.T) {
	h, m := newTestHandler(t)
	m.strain.EXPECT().
		Score(gomock.Any(), caller.Authenticated{User: "user-1"}, testDate).
		Return(&strain.Result{UserID: "user-1", Date: testDate, StrainScore: 12, ExerciseScore: 9.5, RawLoad: 420}, nil)

	rr := serve(newTestRouter(h, asUser), "POST", "/daily/strain", `{"date":"2024-03-09","userId":"user-1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, 12.0, body["strainScore"])
	assert.Equal(t, 420.0, body["rawLoad"])
}

func TestHandler_RequestValidation(t *testing.T) {
	testCases := []struct {
		name      string
		principal caller.Principal
		path      string
		body      string
		status    int
	}{
		{name: "MissingDate", principal: asUser, path: "/daily/recovery", body: `{}`, status: http.StatusBadRequest},
		{name: "EmptyBody", principal: asUser, path: "/daily/recovery", body: ``, status: http.StatusBadRequest},
		{name: "LooseDate", principal: asUser, path: "/daily/recovery", body: `{"date":"2024-3-9"}`, status: http.StatusBadRequest},
		{name: "NotADate", principal: asUser, path: "/daily/strain", body: `{"date":"yesterday"}`, status: http.StatusBadRequest},
		{name: "UnknownField", principal: asUser, path: "/daily/aggregate", body: `{"date":"2024-03-09","force":true}`, status: http.StatusBadRequest},
		{name: "Malformed", principal: asUser, path: "/daily/aggregate", body: `{"date":`, status: http.StatusBadRequest},
		{name: "TrailingGarbage", principal: asUser, path: "/daily/aggregate", body: `{"date":"2024-03-09"}{}`, status: http.StatusBadRequest},
		{name: "OtherUsersData", principal: asUser, path: "/daily/recovery", body: `{"date":"2024-03-09","userId":"user-2"}`, status: http.StatusForbidden},
		{name: "OperatorWithoutUser", principal: asOp, path: "/daily/recovery", body: `{"date":"2024-03-09"}`, status: http.StatusBadRequest},
		{name: "Anonymous", principal: nobody, path: "/daily/recovery", body: `{"date":"2024-03-09"}`, status: http.StatusUnauthorized},
		{name: "BadPipelineDate", principal: asUser, path: "/pipeline/run", body: `{"dates":["2024-03-09","03/10/2024"]}`, status: http.StatusBadRequest},
		{name: "UnknownMetric", principal: asUser, path: "/baselines/compute", body: `{"metrics":["vo2max"]}`, status: http.StatusBadRequest},
		{name: "BadComputedOn", principal: asUser, path: "/baselines/compute", body: `{"computedOn":"2024-03-9"}`, status: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// no component call is expected
			h, _ := newTestHandler(t)
			rr := serve(newTestRouter(h, tc.principal), "POST", tc.path, tc.body)
			assert.Equal(t, tc.status, rr.Code, rr.Body.String())
			body := decode(t, rr)
			assert.Equal(t, false, body["ok"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHandler_ErrorStatusMapping(t *testing.T) {
	testCases := []struct {
		name          string
		err           error
		status        int
		expectedError string
	}{
		{name: "InvalidInput", err: wellness.InvalidInput("bad"), status: http.StatusBadRequest, expectedError: "invalid input: bad"},
		{name: "Forbidden", err: caller.ErrForbidden, status: http.StatusForbidden, expectedError: "forbidden"},
		{name: "DataAccess", err: wellness.DataAccess("get daily row", errors.New("dial tcp 10.0.0.3:5432")), status: http.StatusInternalServerError, expectedError: "data access failure"},
		{name: "Unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, expectedError: "internal error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h, m := newTestHandler(t)
			m.recovery.EXPECT().Score(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tc.err)

			rr := serve(newTestRouter(h, asUser), "POST", "/daily/recovery", `{"date":"2024-03-09"}`)
			assert.Equal(t, tc.status, rr.Code)
			body := decode(t, rr)
			assert.Equal(t, tc.expectedError, body["error"])
			assert.NotContains(t, rr.Body.String(), "10.0.0.3")
		})
	}
}

func TestHandler_RunPipeline(t *testing.T) {
	h, m := newTestHandler(t)
	router := newTestRouter(h, asUser)

	m.pipeline.EXPECT().
		Run(gomock.Any(), caller.Authenticated{User: "user-1"}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ caller.Context, req pipeline.Request) (*pipeline.Result, error) {
			assert.Equal(t, []wellness.Date{wellness.MustParseDate("2024-03-08"), testDate}, req.Dates)
			require.NotNil(t, req.ComputeBaselines)
			assert.False(t, *req.ComputeBaselines)
			return &pipeline.Result{
				OK:     false,
				UserID: "user-1",
				RunID:  "run-1",
				Failures: []pipeline.Failure{
					{Date: testDate, Step: pipeline.StepRecovery, Error: "insufficient data: missing [hrv_ms]"},
				},
			}, nil
		})

	rr := serve(router, "POST", "/pipeline/run", `{"dates":["2024-03-09","2024-03-08","2024-03-09"],"computeBaselines":false}`)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "run-1", body["runId"])
	assert.Len(t, body["failures"], 1)

	m.pipeline.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, pipeline.ErrRunInProgress)
	rr = serve(router, "POST", "/pipeline/run", ``)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandler_ComputeBaselines(t *testing.T) {
	h, m := newTestHandler(t)

	m.baselines.EXPECT().
		Compute(gomock.Any(), caller.Service{OnBehalfOf: "user-3"}, wellness.MustParseDate("2024-03-10"), []wellness.Metric{wellness.MetricHRV}).
		Return(&baseline.ComputeResult{
			UserID:     "user-3",
			ComputedOn: wellness.MustParseDate("2024-03-10"),
			Results:    []baseline.Row{{Metric: wellness.MetricHRV, Avg: wellness.Float(51.2), Stddev: wellness.Float(3.1), N: 12}},
		}, nil)

	rr := serve(newTestRouter(h, asOp), "POST", "/baselines/compute", `{"userId":"user-3","metrics":["hrv_ms","hrv_ms"]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t,
		`{"ok":true,"userId":"user-3","computedOn":"2024-03-10","results":[{"metric":"hrv_ms","computedOn":"2024-03-10","avg":51.2,"stddev":3.1,"n":12}]}`,
		rr.Body.String(),
	)
}

func TestHandler_Reconcile(t *testing.T) {
	h, m := newTestHandler(t)

	rr := serve(newTestRouter(h, asUser), "POST", "/pipeline/reconcile", `{}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = serve(newTestRouter(h, nobody), "POST", "/pipeline/reconcile", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	m.reconciler.EXPECT().RunOnce(gomock.Any()).Return(&reconciler.Summary{
		UsersProcessed: 2,
		OKCount:        1,
		FailCount:      1,
		PerUser:        []reconciler.UserResult{{UserID: "a", OK: true}, {UserID: "b", Error: "boom"}},
	}, nil)
	rr = serve(newTestRouter(h, asOp), "POST", "/pipeline/reconcile", `{}`)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, 2.0, body["usersProcessed"])

	disabled := NewHandler(nil, nil, nil, nil, nil, nil, clock.NewFakeClock(testNow))
	rr = serve(newTestRouter(disabled, asOp), "POST", "/pipeline/reconcile", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

type countingLimiter struct {
	allowed map[string]int
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	res := &redis_rate.Result{Limit: limit, RetryAfter: time.Second}
	if l.allowed[key] > 0 {
		l.allowed[key]--
		res.Allowed = 1
	}
	return res, nil
}

func TestHandler_SetupRoutes_RateLimitsPipelineAndBaselines(t *testing.T) {
	h, m := newTestHandler(t)
	limiter := &countingLimiter{allowed: map[string]int{
		"pipeline||user||user-1":  1,
		"baselines||user||user-1": 0,
	}}
	metricsManager := metrics.NewTestManager()

	r := mux.NewRouter()
	r.Use(withPrincipal(asUser))
	h.SetupRoutes(r, limiter, 5, metricsManager)

	m.pipeline.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).Return(&pipeline.Result{OK: true}, nil)
	assert.Equal(t, http.StatusOK, serve(r, "POST", "/pipeline/run", `{}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, "POST", "/pipeline/run", `{}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, "POST", "/baselines/compute", `{}`).Code)

	// daily routes are not limited
	m.strain.EXPECT().Score(gomock.Any(), gomock.Any(), gomock.Any()).Return(&strain.Result{}, nil).Times(3)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, "POST", "/daily/strain", `{"date":"2024-03-09"}`).Code)
	}
}

func TestHandler_RunPipeline_EndToEnd(t *testing.T) {
	clk := clock.NewFakeClock(testNow)
	raw := rawdata.NewMemRepo()
	dailyRepo := daily.NewMemRepo()
	baselineRepo := baseline.NewMemRepo()
	estimator := baseline.NewEstimator(dailyRepo, baselineRepo, nil, nil)
	orchestrator := pipeline.NewOrchestrator(
		pipeline.Config{},
		aggregate.NewAggregator(raw, dailyRepo, clk),
		recovery.NewScorer(recovery.DefaultConfig(), dailyRepo, estimator, clk),
		strain.NewScorer(strain.DefaultConfig(), raw, dailyRepo, estimator, clk),
		estimator,
		pipeline.NewMemLocker(),
		clk,
		nil,
	)
	h := NewHandler(nil, nil, nil, estimator, orchestrator, nil, clk)

	raw.AddSleepSession(rawdata.SleepSession{ID: 1, UserID: "user-1", Date: testDate, DurationMin: 430, Score: wellness.Float(77)})
	raw.AddWorkout(rawdata.Workout{ID: 1, UserID: "user-1", Date: testDate, DurationMin: 45, Calories: wellness.Float(400), AvgHR: wellness.Float(140), MaxHR: wellness.Float(180)})
	dailyRepo.Put(daily.Row{UserID: "user-1", Date: testDate, HRVMs: wellness.Float(55), RestingHR: wellness.Float(56)})

	rr := serve(newTestRouter(h, asUser), "POST", "/pipeline/run", `{"dates":["2024-03-09"]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.OK, "failures: %v", res.Failures)
	require.Len(t, res.PerDateResults, 1)
	assert.Equal(t, pipeline.StateStrainScored, res.PerDateResults[0].State)
	require.NotNil(t, res.BaselineResult)
	assert.Equal(t, wellness.DateOf(testNow), res.BaselineResult.ComputedOn)

	row, err := dailyRepo.Get(context.Background(), "user-1", testDate)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.NotNil(t, row.RecoveryScore)
	assert.NotNil(t, row.StrainScore)
	assert.Equal(t, 77.0, *row.SleepScore)
}
