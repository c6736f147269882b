//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/2beens/dailymetrics/internal/middleware"
)

type authKind int

const (
	authNone authKind = iota
	authOperator
	authBearer
)

type requestAuth struct {
	kind  authKind
	token string
}

func asOperator() requestAuth           { return requestAuth{kind: authOperator} }
func asUser(token string) requestAuth   { return requestAuth{kind: authBearer, token: token} }
func anonymous() requestAuth            { return requestAuth{kind: authNone} }

// post sends body as JSON and returns the status code and the decoded JSON object.
func (s *IntegrationTestSuite) post(ctx context.Context, path string, auth requestAuth, body any) (int, map[string]any) {
	t := s.T()

	reqBody, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverEndpoint+path, bytes.NewReader(reqBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	switch auth.kind {
	case authOperator:
		req.Header.Set(middleware.OperatorSecretHeader, testOperatorSecret)
	case authBearer:
		req.Header.Set("Authorization", "Bearer "+auth.token)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(respBytes) > 0 {
		require.NoError(t, json.Unmarshal(respBytes, &decoded), string(respBytes))
	}
	return resp.StatusCode, decoded
}

type sleepSeed struct {
	date        string
	startedAt   time.Time
	durationMin float64
	score       *float64
}

type workoutSeed struct {
	date        string
	startedAt   time.Time
	durationMin float64
	calories    float64
	distanceM   float64
	avgHR       *float64
	maxHR       *float64
}

func (s *IntegrationTestSuite) seedConnection(ctx context.Context, userID string) {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO provider_connection (user_id, provider, active) VALUES ($1, 'garmin', TRUE)`,
		userID,
	)
	require.NoError(s.T(), err)
}

func (s *IntegrationTestSuite) seedSleep(ctx context.Context, userID string, sleep sleepSeed) {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO sleep_session (user_id, date, started_at, duration_min, score)
		VALUES ($1, $2, $3, $4, $5)`,
		userID, sleep.date, sleep.startedAt, sleep.durationMin, sleep.score,
	)
	require.NoError(s.T(), err)
}

func (s *IntegrationTestSuite) seedWorkout(ctx context.Context, userID string, w workoutSeed) {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO workout (user_id, date, started_at, duration_min, calories, distance_m, avg_hr, max_hr)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		userID, w.date, w.startedAt, w.durationMin, w.calories, w.distanceM, w.avgHR, w.maxHR,
	)
	require.NoError(s.T(), err)
}

func (s *IntegrationTestSuite) seedStress(ctx context.Context, userID, date string, values ...float64) {
	day, err := time.Parse(time.DateOnly, date)
	require.NoError(s.T(), err)
	for i, v := range values {
		_, err := s.DB.ExecContext(ctx, `
			INSERT INTO intraday_metric (user_id, date, metric, value, recorded_at)
			VALUES ($1, $2, 'stress_level', $3, $4)`,
			userID, date, v, day.Add(time.Duration(9+i)*time.Hour),
		)
		require.NoError(s.T(), err)
	}
}

func ptr[T any](v T) *T {
	return &v
}
