package rawdata

import (
	"context"
	"time"

	"github.com/2beens/dailymetrics/internal/telemetry/tracing"
	"github.com/2beens/dailymetrics/internal/wellness"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Workouts(ctx context.Context, userID string, date wellness.Date) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.rawdata.workouts")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, date, started_at, duration_min, calories, distance_m, avg_hr, max_hr,
			CASE WHEN tlp_cardio IS NULL AND tlp_perceived IS NULL AND tlp_muscle IS NULL THEN NULL
				ELSE COALESCE(tlp_cardio, 0) + COALESCE(tlp_perceived, 0) + COALESCE(tlp_muscle, 0)
			END AS training_load
		FROM workout
		WHERE user_id = $1 AND date = $2
		ORDER BY started_at, id`,
		userID, date.Time(),
	)
	if err != nil {
		return nil, wellness.DataAccess("list workouts", err)
	}
	defer rows.Close()

	var workouts []Workout
	for rows.Next() {
		var (
			w Workout
			d time.Time
		)
		if err := rows.Scan(
			&w.ID, &w.UserID, &d, &w.StartedAt, &w.DurationMin,
			&w.Calories, &w.DistanceM, &w.AvgHR, &w.MaxHR, &w.TrainingLoad,
		); err != nil {
			return nil, wellness.DataAccess("scan workout", err)
		}
		w.Date = wellness.DateOf(d)
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, wellness.DataAccess("iterate workouts", err)
	}
	return workouts, nil
}

func (r *Repo) SleepSessions(ctx context.Context, userID string, date wellness.Date) (_ []SleepSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.rawdata.sleep")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, date, started_at, duration_min, efficiency, score,
			deep_min, light_min, rem_min, awake_min
		FROM sleep_session
		WHERE user_id = $1 AND date = $2
		ORDER BY started_at, id`,
		userID, date.Time(),
	)
	if err != nil {
		return nil, wellness.DataAccess("list sleep sessions", err)
	}
	defer rows.Close()

	var sessions []SleepSession
	for rows.Next() {
		var (
			s SleepSession
			d time.Time
		)
		if err := rows.Scan(
			&s.ID, &s.UserID, &d, &s.StartedAt, &s.DurationMin, &s.Efficiency, &s.Score,
			&s.Stages.DeepMin, &s.Stages.LightMin, &s.Stages.RemMin, &s.Stages.AwakeMin,
		); err != nil {
			return nil, wellness.DataAccess("scan sleep session", err)
		}
		s.Date = wellness.DateOf(d)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wellness.DataAccess("iterate sleep sessions", err)
	}
	return sessions, nil
}

func (r *Repo) IntradayPoints(ctx context.Context, userID string, date wellness.Date, metric string) (_ []IntradayPoint, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.rawdata.intraday")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	rows, err := r.db.Query(ctx, `
		SELECT user_id, date, metric, value, recorded_at
		FROM intraday_metric
		WHERE user_id = $1 AND date = $2 AND metric = $3
		ORDER BY recorded_at`,
		userID, date.Time(), metric,
	)
	if err != nil {
		return nil, wellness.DataAccess("list intraday points", err)
	}
	defer rows.Close()

	var points []IntradayPoint
	for rows.Next() {
		var (
			p IntradayPoint
			d time.Time
		)
		if err := rows.Scan(&p.UserID, &d, &p.Metric, &p.Value, &p.At); err != nil {
			return nil, wellness.DataAccess("scan intraday point", err)
		}
		p.Date = wellness.DateOf(d)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wellness.DataAccess("iterate intraday points", err)
	}
	return points, nil
}

// ActiveConnections lists users with an active provider connection, at most limit of them.
func (r *Repo) ActiveConnections(ctx context.Context, limit int) (_ []ProviderConnection, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.rawdata.connections")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT ON (user_id) user_id, provider, active, updated_at
		FROM provider_connection
		WHERE active
		ORDER BY user_id, updated_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, wellness.DataAccess("list provider connections", err)
	}
	defer rows.Close()

	var conns []ProviderConnection
	for rows.Next() {
		var c ProviderConnection
		if err := rows.Scan(&c.UserID, &c.Provider, &c.Active, &c.UpdatedAt); err != nil {
			return nil, wellness.DataAccess("scan provider connection", err)
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wellness.DataAccess("iterate provider connections", err)
	}
	return conns, nil
}
