package daily

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/dailymetrics/internal/telemetry/tracing"
	"github.com/2beens/dailymetrics/internal/wellness"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const rowColumns = `user_id, date, sleep_score, recovery_score, strain_score,
	hrv_ms, resting_hr, respiratory_rate, spo2, steps,
	active_calories, total_calories, distance_m, stress_avg, sleep_duration_min,
	last_computed_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Get returns nil, nil when no row exists for (userID, date).
func (r *Repo) Get(ctx context.Context, userID string, date wellness.Date) (_ *Row, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.daily.get")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("user_id", userID), attribute.String("date", date.String()))

	row, err := scanRow(r.db.QueryRow(ctx,
		`SELECT `+rowColumns+` FROM daily_metrics WHERE user_id = $1 AND date = $2`,
		userID, date.Time(),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wellness.DataAccess("get daily row", err)
	}
	return row, nil
}

// ListRange returns stored rows with from <= date <= to, oldest first.
func (r *Repo) ListRange(ctx context.Context, userID string, from, to wellness.Date) (_ []Row, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.daily.list")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	rows, err := r.db.Query(ctx,
		`SELECT `+rowColumns+` FROM daily_metrics
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`,
		userID, from.Time(), to.Time(),
	)
	if err != nil {
		return nil, wellness.DataAccess("list daily rows", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, wellness.DataAccess("scan daily row", err)
		}
		result = append(result, *row)
	}
	if err := rows.Err(); err != nil {
		return nil, wellness.DataAccess("iterate daily rows", err)
	}
	return result, nil
}

// Upsert merges patch into the stored row under a row lock and writes the result back.
func (r *Repo) Upsert(
	ctx context.Context,
	userID string,
	date wellness.Date,
	patch Patch,
	now time.Time,
) (_ *Row, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.daily.upsert")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("user_id", userID), attribute.String("date", date.String()))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, wellness.DataAccess("begin daily upsert", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Errorf("daily upsert [%s %s], rollback: %s", userID, date, rbErr)
			}
			return
		}
		if cErr := tx.Commit(ctx); cErr != nil {
			err = wellness.DataAccess("commit daily upsert", cErr)
		}
	}()

	existing, err := scanRow(tx.QueryRow(ctx,
		`SELECT `+rowColumns+` FROM daily_metrics WHERE user_id = $1 AND date = $2 FOR UPDATE`,
		userID, date.Time(),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		existing, err = nil, nil
	}
	if err != nil {
		return nil, wellness.DataAccess("lock daily row", err)
	}

	merged := Merge(existing, userID, date, patch, now)
	stored, err := scanRow(tx.QueryRow(ctx, `
		INSERT INTO daily_metrics (`+rowColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (user_id, date) DO UPDATE SET
			sleep_score = EXCLUDED.sleep_score,
			recovery_score = EXCLUDED.recovery_score,
			strain_score = EXCLUDED.strain_score,
			hrv_ms = EXCLUDED.hrv_ms,
			resting_hr = EXCLUDED.resting_hr,
			respiratory_rate = EXCLUDED.respiratory_rate,
			spo2 = EXCLUDED.spo2,
			steps = EXCLUDED.steps,
			active_calories = EXCLUDED.active_calories,
			total_calories = EXCLUDED.total_calories,
			distance_m = EXCLUDED.distance_m,
			stress_avg = EXCLUDED.stress_avg,
			sleep_duration_min = EXCLUDED.sleep_duration_min,
			last_computed_at = EXCLUDED.last_computed_at
		RETURNING `+rowColumns,
		merged.UserID, merged.Date.Time(),
		merged.SleepScore, merged.RecoveryScore, merged.StrainScore,
		merged.HRVMs, merged.RestingHR, merged.RespiratoryRate, merged.SpO2, merged.Steps,
		merged.ActiveCalories, merged.TotalCalories, merged.DistanceM, merged.StressAvg, merged.SleepDurationMin,
		merged.LastComputedAt,
	))
	if err != nil {
		return nil, wellness.DataAccess("upsert daily row", err)
	}

	return stored, nil
}

func scanRow(row pgx.Row) (*Row, error) {
	var (
		r    Row
		date time.Time
	)
	if err := row.Scan(
		&r.UserID, &date,
		&r.SleepScore, &r.RecoveryScore, &r.StrainScore,
		&r.HRVMs, &r.RestingHR, &r.RespiratoryRate, &r.SpO2, &r.Steps,
		&r.ActiveCalories, &r.TotalCalories, &r.DistanceM, &r.StressAvg, &r.SleepDurationMin,
		&r.LastComputedAt,
	); err != nil {
		return nil, fmt.Errorf("scan daily row: %w", err)
	}
	r.Date = wellness.DateOf(date)
	r.LastComputedAt = r.LastComputedAt.UTC()
	return &r, nil
}
