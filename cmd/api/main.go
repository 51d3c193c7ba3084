package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pokestudy/battle-api/internal/battle"
	"github.com/pokestudy/battle-api/internal/config"
	"github.com/pokestudy/battle-api/internal/handlers"
	"github.com/pokestudy/battle-api/internal/logic"
	"github.com/pokestudy/battle-api/internal/store"
	"github.com/pokestudy/battle-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Sugar().Fatalw("Server exited with error", "error", err)
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	sugar := logger.Sugar()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		rosterLoader logic.RosterLoader
		combatLoader logic.CombatLoader
		combatWriter worker.CombatWriter
		readyChecks  = map[string]handlers.ReadyCheck{}
	)

	csvSource := store.NewCSVSource(cfg.RosterCSV, cfg.CombatsCSV, logger)
	rosterLoader, combatLoader = csvSource, csvSource

	if cfg.Uses(config.SourcePostgres) {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		pg := store.NewPostgresSource(pool)
		if cfg.RosterSource == config.SourcePostgres {
			rosterLoader = pg
		}
		if cfg.CombatSource == config.SourcePostgres {
			combatLoader = pg
		}
		readyChecks["postgres"] = pg.Ready
		sugar.Infow("Connected to Postgres")
	}

	if cfg.Uses(config.SourceClickHouse) {
		opts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
		if err != nil {
			return fmt.Errorf("parse clickhouse url: %w", err)
		}
		conn, err := clickhouse.Open(opts)
		if err != nil {
			return fmt.Errorf("connect clickhouse: %w", err)
		}
		defer conn.Close()
		if err := conn.Ping(ctx); err != nil {
			return fmt.Errorf("ping clickhouse: %w", err)
		}
		ch := store.NewClickHouseCombats(conn)
		combatLoader, combatWriter = ch, ch
		readyChecks["clickhouse"] = conn.Ping
		sugar.Infow("Connected to ClickHouse")
	}

	if cfg.Uses(config.SourceMySQL) {
		db, err := store.OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		rosterLoader = store.NewMySQLRoster(db)
		readyChecks["mysql"] = db.PingContext
		sugar.Infow("Connected to MySQL")
	}

	var cacheClient logic.RedisClient
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		cacheClient = rdb
		readyChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		sugar.Infow("Connected to Redis")
	}

	trainer := battle.NewTrainer(battle.TrainOptions{
		Seed:           cfg.ModelSeed,
		TestFraction:   cfg.ModelTestFraction,
		MaxDepth:       cfg.ModelMaxDepth,
		MinSamplesLeaf: cfg.ModelMinSamplesLeaf,
	}, nil, logger)

	cache := logic.NewBundleCache(logic.BundleCacheConfig{
		Roster:       rosterLoader,
		Combats:      combatLoader,
		Trainer:      trainer,
		Redis:        cacheClient,
		BundleTTL:    cfg.BundleCacheTTL,
		BuildTimeout: cfg.ModelBuildTimeout,
		RefreshDelay: cfg.ModelRefreshDelay,
		Logger:       logger,
	})
	defer cache.Close()

	// Train before accepting traffic so the first request is not a cold start
	if _, err := cache.Get(ctx); err != nil {
		return fmt.Errorf("initial training: %w", err)
	}
	readyChecks["model"] = func(context.Context) error {
		if !cache.Loaded() {
			return errors.New("model not trained")
		}
		return nil
	}

	var queue handlers.IngestQueue
	if cfg.IngestEnabled() {
		pool := worker.NewPool(worker.PoolConfig{
			WorkerCount:   cfg.WorkerCount,
			QueueSize:     cfg.QueueSize,
			BatchSize:     cfg.BatchSize,
			FlushInterval: cfg.FlushInterval,
			Writer:        combatWriter,
			OnFlush: func(int) {
				// new history: the current model keeps serving until a
				// debounced background retrain replaces it
				cache.Invalidate()
			},
			Logger: logger,
		})
		pool.Start(ctx)
		defer pool.Stop()
		queue = pool
	}

	h := handlers.New(handlers.Config{
		WorkerPool:  queue,
		Prediction:  logic.NewPredictionService(cache, cacheClient, cfg.PredictionCacheTTL, logger),
		ReadyChecks: readyChecks,
		AdminToken:  cfg.AdminToken,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: handlers.NewRouter(h, handlers.RouterConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			RatePerSecond:  float64(cfg.RateLimitPerSecond),
			RateBurst:      cfg.RateLimitBurst,
		}),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("API server starting", "port", cfg.Port, "roster", cfg.RosterSource, "combats", cfg.CombatSource)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sugar.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
