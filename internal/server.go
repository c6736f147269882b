package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/2beens/dailymetrics/internal/api"
	"github.com/2beens/dailymetrics/internal/auth"
	"github.com/2beens/dailymetrics/internal/config"
	"github.com/2beens/dailymetrics/internal/db"
	"github.com/2beens/dailymetrics/internal/middleware"
	"github.com/2beens/dailymetrics/internal/reconciler"
	"github.com/2beens/dailymetrics/internal/telemetry/metrics"
	"github.com/2beens/dailymetrics/internal/telemetry/tracing"
)

const sessionsCleanupInterval = 8 * time.Hour

type Server struct {
	*Engine

	httpServer        *http.Server
	metricsHttpServer *http.Server

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	operator    *auth.OperatorVerifier

	// background loops (reconciler, session cleanup)
	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	RedisPassword           string
	OperatorSecretHash      string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	if cfg.EnsureSchema {
		if err := db.EnsureSchema(ctx, dbPool); err != nil {
			dbPool.Close()
			return nil, err
		}
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus("dailymetrics-backend", pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "dailymetrics", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := NewRedisClient(ctx, cfg, params.RedisPassword)

	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "dailymetrics-backend", rdb)
	if err != nil {
		dbPool.Close()
		_ = rdb.Close()
		return nil, err
	}

	engine, err := NewEngine(cfg, dbPool, rdb, metricsManager)
	if err != nil {
		dbPool.Close()
		_ = rdb.Close()
		return nil, err
	}

	s := &Server{
		Engine:      engine,
		config:      cfg,
		dbPool:      dbPool,
		redisClient: rdb,
		operator:    auth.NewOperatorVerifier(params.OperatorSecretHash),

		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	if !s.operator.Enabled() {
		log.Warnln("operator secret hash not set, operator requests will be rejected")
	}

	return s, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	// a nil *Reconciler must not reach the handler as a non-nil interface
	var reconcileRunner interface {
		RunOnce(ctx context.Context) (*reconciler.Summary, error)
	}
	if s.Reconciler != nil {
		reconcileRunner = s.Reconciler
	}

	handler := api.NewHandler(
		s.Aggregator,
		s.Recovery,
		s.Strain,
		s.Baselines,
		s.Orchestrator,
		reconcileRunner,
		s.Clock,
	)
	handler.SetupRoutes(r, redis_rate.NewLimiter(s.redisClient), s.config.RateLimitAllowedPerMin, s.metricsManager)

	// all the rest - unhandled paths
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.Sessions, s.operator)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.LogRequest())
	r.Use(middleware.DrainAndCloseRequest(s.config.MaxRequestBodyBytes))

	return r
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: 5 * time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.startBackground(ctx)
	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) startBackground(ctx context.Context) {
	ctx, s.bgCancel = context.WithCancel(ctx)

	if s.Reconciler != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			s.Reconciler.RunForever(ctx)
		}()
	}

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		ticker := time.NewTicker(sessionsCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.Sessions.ScanAndClean(ctx)
				if err != nil {
					log.Errorf("sessions scan and clean: %s", err)
					continue
				}
				log.Debugf("sessions scan and clean: %d removed", removed)
			}
		}
	}()
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	if s.bgCancel != nil {
		s.bgCancel()
		s.bgWG.Wait()
		log.Debugln("background loops stopped")
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Errorf(" >>> failed to gracefully shutdown http server: %s", err)
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Errorf(" >>> failed to gracefully shutdown metrics http server: %s", err)
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	s.closeStores()

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) closeStores() {
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close()
		log.Debugln("db pool closed")
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeOpenConnections.Inc()
	case http.StateClosed:
		s.metricsManager.GaugeOpenConnections.Dec()
	default:
		// do nothing
	}
}
