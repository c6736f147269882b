package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/2beens/dailymetrics/internal"
	"github.com/2beens/dailymetrics/internal/config"
	"github.com/2beens/dailymetrics/internal/db"
	"github.com/2beens/dailymetrics/internal/logging"
)

var (
	flagEnv        string
	flagConfigPath string
	flagEnvFile    string
	flagLogLevel   string
	flagJSON       bool
)

// deps is set up by PersistentPreRunE for commands that need the stores.
var deps struct {
	cfg     *config.Config
	secrets *config.Secrets
	dbPool  *pgxpool.Pool
	rdb     *redis.Client
	engine  *internal.Engine
}

var rootCmd = &cobra.Command{
	Use:   "metricsctl",
	Short: "Operator tool for the daily metrics backend",
	Long: `metricsctl runs the daily metrics computations directly against postgres and redis,
without going through the HTTP API.

EXAMPLES:

  $ metricsctl run --user u-123 --days 3     # re-run the pipeline for the last 3 days
  $ metricsctl run --user u-123 --date 2024-03-09
  $ metricsctl baselines --user u-123         # refresh baselines as of today
  $ metricsctl reconcile                      # one nightly reconciler pass, now
  $ metricsctl session create --user u-123    # mint a bearer token
  $ metricsctl hash-secret 's3cret'           # value for OPERATOR_SECRET_HASH`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(logging.LoggerSetupParams{
			LogToStdout: true,
			LogLevel:    flagLogLevel,
		})

		if !needsStores(cmd) {
			return nil
		}

		cfg, err := config.Load(flagEnv, flagConfigPath)
		if err != nil {
			return err
		}
		secrets, err := config.LoadSecrets(flagEnvFile)
		if err != nil {
			return fmt.Errorf("load secrets: %w", err)
		}
		deps.cfg, deps.secrets = cfg, secrets

		ctx := commandContext(cmd)
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost: cfg.PostgresHost,
			DBPort: cfg.PostgresPort,
			DBName: cfg.PostgresDBName,
		})
		if err != nil {
			return fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			dbPool.Close()
			return fmt.Errorf("ping db: %w", err)
		}
		deps.dbPool = dbPool
		deps.rdb = internal.NewRedisClient(ctx, cfg, secrets.RedisPassword)

		deps.engine, err = internal.NewEngine(cfg, dbPool, deps.rdb, nil)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if deps.rdb != nil {
			if err := deps.rdb.Close(); err != nil {
				log.Warnf("close redis: %s", err)
			}
		}
		if deps.dbPool != nil {
			deps.dbPool.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", "development", "environment [prod | production | dev | development]")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "./config.toml", "path for the TOML config file")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "optional dotenv file with secrets")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "print the full result as JSON")
}

const annotationNoStores = "no-stores"

func needsStores(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[annotationNoStores]; ok {
			return false
		}
	}
	return cmd.Name() != "help" && cmd.Name() != "metricsctl"
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
