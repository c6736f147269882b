package baseline

import (
	"context"
	"errors"
	"time"

	"github.com/2beens/dailymetrics/internal/telemetry/tracing"
	"github.com/2beens/dailymetrics/internal/wellness"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Row struct {
	UserID     string          `json:"-"`
	Metric     wellness.Metric `json:"metric"`
	ComputedOn wellness.Date   `json:"computedOn"`
	Avg        *float64        `json:"avg"`
	Stddev     *float64        `json:"stddev"`
	N          int             `json:"n"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Upsert(ctx context.Context, row Row) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.baseline.upsert")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if _, err := r.db.Exec(ctx, `
		INSERT INTO baseline (user_id, metric, computed_on, avg, stddev, n)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, metric, computed_on) DO UPDATE SET
			avg = EXCLUDED.avg,
			stddev = EXCLUDED.stddev,
			n = EXCLUDED.n`,
		row.UserID, string(row.Metric), row.ComputedOn.Time(), row.Avg, row.Stddev, row.N,
	); err != nil {
		return wellness.DataAccess("upsert baseline", err)
	}
	return nil
}

// LatestOnOrBefore returns the newest row with computed_on <= date, or nil.
func (r *Repo) LatestOnOrBefore(ctx context.Context, userID string, metric wellness.Metric, date wellness.Date) (_ *Row, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.baseline.latest")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	var (
		row        Row
		computedOn time.Time
		metricName string
	)
	err = r.db.QueryRow(ctx, `
		SELECT user_id, metric, computed_on, avg, stddev, n
		FROM baseline
		WHERE user_id = $1 AND metric = $2 AND computed_on <= $3
		ORDER BY computed_on DESC
		LIMIT 1`,
		userID, string(metric), date.Time(),
	).Scan(&row.UserID, &metricName, &computedOn, &row.Avg, &row.Stddev, &row.N)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wellness.DataAccess("lookup baseline", err)
	}
	row.Metric = wellness.Metric(metricName)
	row.ComputedOn = wellness.DateOf(computedOn)
	return &row, nil
}
