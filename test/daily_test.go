//go:build integration_test || all_tests

package test

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestHealth() {
	resp, err := s.httpClient.Get(serverEndpoint + "/health")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestAuth() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	t := s.T()

	userID := gofakeit.UUID()
	token, err := s.server.Sessions.Create(ctx, userID)
	require.NoError(t, err)

	body := map[string]any{"date": "2024-03-01"}
	status, _ := s.post(ctx, "/daily/aggregate", anonymous(), body)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.post(ctx, "/daily/aggregate", asUser("not-a-token"), body)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, resp := s.post(ctx, "/daily/aggregate", asUser(token), body)
	require.Equal(t, http.StatusOK, status, resp)
	assert.Equal(t, userID, resp["userId"])

	// users can only act on their own data
	status, _ = s.post(ctx, "/daily/aggregate", asUser(token), map[string]any{"date": "2024-03-01", "userId": gofakeit.UUID()})
	assert.Equal(t, http.StatusForbidden, status)

	// operators must name the user
	status, _ = s.post(ctx, "/daily/aggregate", asOperator(), body)
	assert.Equal(t, http.StatusBadRequest, status)

	removed, err := s.server.Sessions.Revoke(ctx, token)
	require.NoError(t, err)
	assert.True(t, removed)
	status, _ = s.post(ctx, "/daily/aggregate", asUser(token), body)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func (s *IntegrationTestSuite) TestAggregateAndRecovery() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	t := s.T()

	userID := gofakeit.UUID()
	date := "2024-03-09"
	night := time.Date(2024, 3, 8, 23, 0, 0, 0, time.UTC)
	s.seedSleep(ctx, userID, sleepSeed{date: date, startedAt: night, durationMin: 450, score: ptr(82.0)})
	// a shorter nap, the longest session wins
	s.seedSleep(ctx, userID, sleepSeed{date: date, startedAt: night.Add(14 * time.Hour), durationMin: 30, score: ptr(40.0)})
	s.seedWorkout(ctx, userID, workoutSeed{date: date, startedAt: night.Add(18 * time.Hour), durationMin: 45, calories: 300, distanceM: 5000})
	s.seedWorkout(ctx, userID, workoutSeed{date: date, startedAt: night.Add(20 * time.Hour), durationMin: 20, calories: 120.5, distanceM: 1000})
	s.seedStress(ctx, userID, date, 20, 40)

	status, resp := s.post(ctx, "/daily/aggregate", asOperator(), map[string]any{"date": date, "userId": userID})
	require.Equal(t, http.StatusOK, status, resp)
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, 82.0, resp["sleepScore"])
	assert.Equal(t, 450.0, resp["sleepDurationMin"])
	assert.Equal(t, 420.5, resp["activeCalories"])
	assert.Equal(t, 6000.0, resp["distanceM"])
	assert.Equal(t, 30.0, resp["stressAvg"])

	status, resp = s.post(ctx, "/daily/recovery", asOperator(), map[string]any{"date": date, "userId": userID})
	require.Equal(t, http.StatusOK, status, resp)
	recoveryScore, ok := resp["recoveryScore"].(float64)
	require.True(t, ok, resp)
	assert.GreaterOrEqual(t, recoveryScore, 0.0)
	assert.LessOrEqual(t, recoveryScore, 100.0)

	var stored sql.NullInt64
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT recovery_score FROM daily_metrics WHERE user_id = $1 AND date = $2`, userID, date,
	).Scan(&stored))
	require.True(t, stored.Valid)
	assert.Equal(t, int64(recoveryScore), stored.Int64)
}

func (s *IntegrationTestSuite) TestStrain_HeavyDayIsStored() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	t := s.T()

	userID := gofakeit.UUID()
	date := "2024-03-05"
	s.seedWorkout(ctx, userID, workoutSeed{
		date:        date,
		startedAt:   time.Date(2024, 3, 5, 17, 0, 0, 0, time.UTC),
		durationMin: 90,
		calories:    900,
		distanceM:   15000,
		avgHR:       ptr(150.0),
		maxHR:       ptr(185.0),
	})

	status, resp := s.post(ctx, "/daily/strain", asOperator(), map[string]any{"date": date, "userId": userID})
	require.Equal(t, http.StatusOK, status, resp)
	assert.Equal(t, true, resp["ok"])
	strainScore, ok := resp["strainScore"].(float64)
	require.True(t, ok, resp)
	assert.Greater(t, strainScore, 100.0)
	assert.LessOrEqual(t, strainScore, 200.0)

	var stored sql.NullInt64
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT strain_score FROM daily_metrics WHERE user_id = $1 AND date = $2`, userID, date,
	).Scan(&stored))
	require.True(t, stored.Valid)
	assert.Equal(t, int64(strainScore), stored.Int64)
}

func (s *IntegrationTestSuite) TestRecovery_InsufficientData() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status, resp := s.post(ctx, "/daily/recovery", asOperator(), map[string]any{"date": "2024-02-01", "userId": gofakeit.UUID()})
	s.Equal(http.StatusUnprocessableEntity, status, resp)
	s.Equal(false, resp["ok"])
	s.NotEmpty(resp["missing"])
}

func (s *IntegrationTestSuite) TestPipelineAndReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	t := s.T()

	userID := gofakeit.UUID()
	s.seedConnection(ctx, userID)
	dates := []string{"2024-03-07", "2024-03-08"}
	for _, date := range dates {
		day, err := time.Parse(time.DateOnly, date)
		require.NoError(t, err)
		s.seedSleep(ctx, userID, sleepSeed{date: date, startedAt: day.Add(-time.Hour), durationMin: 420, score: ptr(75.0)})
		s.seedStress(ctx, userID, date, 35)
	}

	status, resp := s.post(ctx, "/pipeline/run", asOperator(), map[string]any{"userId": userID, "dates": dates})
	require.Equal(t, http.StatusOK, status, resp)
	assert.Equal(t, userID, resp["userId"])
	assert.NotEmpty(t, resp["runId"])
	perDate, ok := resp["perDateResults"].([]any)
	require.True(t, ok, resp)
	assert.Len(t, perDate, 2)

	var rows int
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM daily_metrics WHERE user_id = $1 AND sleep_score = 75`, userID,
	).Scan(&rows))
	assert.Equal(t, 2, rows)

	var baselineRows int
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM baseline WHERE user_id = $1`, userID,
	).Scan(&baselineRows))
	assert.Positive(t, baselineRows)

	// reconcile needs an operator
	token, err := s.server.Sessions.Create(ctx, userID)
	require.NoError(t, err)
	status, _ = s.post(ctx, "/pipeline/reconcile", asUser(token), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, resp = s.post(ctx, "/pipeline/reconcile", asOperator(), nil)
	require.Equal(t, http.StatusOK, status, resp)
	processed, ok := resp["usersProcessed"].(float64)
	require.True(t, ok, resp)
	assert.GreaterOrEqual(t, processed, 1.0)
}
