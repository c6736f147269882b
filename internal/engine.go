package internal

import (
	"context"
	"fmt"
	"net"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/dailymetrics/internal/aggregate"
	"github.com/2beens/dailymetrics/internal/auth"
	"github.com/2beens/dailymetrics/internal/baseline"
	"github.com/2beens/dailymetrics/internal/clock"
	"github.com/2beens/dailymetrics/internal/config"
	"github.com/2beens/dailymetrics/internal/daily"
	"github.com/2beens/dailymetrics/internal/pipeline"
	"github.com/2beens/dailymetrics/internal/rawdata"
	"github.com/2beens/dailymetrics/internal/reconciler"
	"github.com/2beens/dailymetrics/internal/recovery"
	"github.com/2beens/dailymetrics/internal/strain"
	"github.com/2beens/dailymetrics/internal/telemetry/metrics"
)

// Engine holds the computation services, shared by the HTTP server and metricsctl.
type Engine struct {
	Clock        clock.Clock
	Sessions     *auth.SessionStore
	Aggregator   *aggregate.Aggregator
	Recovery     *recovery.Scorer
	Strain       *strain.Scorer
	Baselines    *baseline.Estimator
	Orchestrator *pipeline.Orchestrator
	Reconciler   *reconciler.Reconciler // nil when disabled
}

// NewEngine wires the services on top of postgres and redis. metricsManager may be nil.
func NewEngine(
	cfg *config.Config,
	dbPool *pgxpool.Pool,
	rdb *redis.Client,
	metricsManager *metrics.Manager,
) (*Engine, error) {
	baselineMetrics, err := cfg.BaselineMetrics()
	if err != nil {
		return nil, err
	}

	clk := clock.Real{}
	dailyRepo := daily.NewRepo(dbPool)
	rawRepo := rawdata.NewRepo(dbPool)

	var lookupCache *baseline.LookupCache
	if cfg.BaselineCacheSizeMB > 0 {
		lookupCache = baseline.NewLookupCache(cfg.BaselineCacheSizeMB, cfg.BaselineCacheTTL)
	}
	estimator := baseline.NewEstimator(dailyRepo, baseline.NewRepo(dbPool), lookupCache, metricsManager)

	e := &Engine{
		Clock:      clk,
		Sessions:   auth.NewSessionStore(rdb, cfg.SessionTTL, clk),
		Aggregator: aggregate.NewAggregator(rawRepo, dailyRepo, clk),
		Recovery:   recovery.NewScorer(cfg.Recovery, dailyRepo, estimator, clk),
		Strain:     strain.NewScorer(cfg.Strain, rawRepo, dailyRepo, estimator, clk),
		Baselines:  estimator,
	}
	e.Orchestrator = pipeline.NewOrchestrator(
		pipeline.Config{
			DefaultDays:     cfg.Pipeline.DefaultDays,
			BaselineMetrics: baselineMetrics,
		},
		e.Aggregator,
		e.Recovery,
		e.Strain,
		e.Baselines,
		pipeline.NewRedisLocker(rdb, cfg.Pipeline.LockTTL),
		clk,
		metricsManager,
	)

	if cfg.Reconciler.Enabled {
		e.Reconciler, err = reconciler.New(cfg.Reconciler.Config, rawRepo, e.Orchestrator, clk, metricsManager)
		if err != nil {
			return nil, fmt.Errorf("new reconciler: %w", err)
		}
	} else {
		log.Warnln("reconciler is disabled")
	}

	return e, nil
}

// NewRedisClient connects to the configured redis. A failed ping is only logged.
func NewRedisClient(ctx context.Context, cfg *config.Config, password string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: password,
		DB:       0,
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}
	return rdb
}
