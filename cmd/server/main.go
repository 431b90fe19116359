package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/smukkama/city-analytics/internal/analytics"
	"github.com/smukkama/city-analytics/internal/api"
	"github.com/smukkama/city-analytics/internal/cache"
	"github.com/smukkama/city-analytics/internal/database"
	"github.com/smukkama/city-analytics/internal/logging"
	"github.com/smukkama/city-analytics/internal/observability"
	"github.com/smukkama/city-analytics/internal/queue"
	"github.com/smukkama/city-analytics/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.Database.Driver, cfg.Database.DSN(), database.PoolConfig{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		logger.Error("failed to connect to database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database", "driver", cfg.Database.Driver)

	if cfg.Database.Driver == "sqlite3" {
		if err := db.EnsureSQLiteSchema(ctx); err != nil {
			logger.Error("failed to prepare sqlite schema", "error", err)
			os.Exit(1)
		}
	}

	engine := analytics.NewEngine(db, db.Dialect, analytics.Options{
		Reference:          cfg.Analytics.Reference,
		ReferenceFromClock: cfg.Analytics.ReferenceFromClock,
		Timeout:            cfg.Analytics.QueryTimeout,
		Clock:              clock,
		Logger:             logger,
		Observer:           metrics.ObserveQuery,
	})
	if cfg.Analytics.ReferenceFromClock {
		logger.Info("analytics windows end at the current time")
	} else {
		logger.Info("analytics windows end at a fixed reference", "reference", cfg.Analytics.Reference)
	}

	srvCfg := api.Config{
		Addr:         cfg.HTTP.Addr(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		CORSOrigins:  cfg.HTTP.CORSOrigins,
		Environment:  cfg.Environment,
		Database:     cfg.Database.DBName,
		Engine:       engine,
		Ready:        db,
		Metrics:      metrics,
		Logger:       logger,
		Clock:        clock,
	}

	// Response cache (feature-flagged via REDIS_ENABLED).
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		responseCache := cache.NewResponseCache(redisClient, cfg.Redis.CacheTTL)
		if err := responseCache.Ping(ctx); err != nil {
			logger.Warn("redis not reachable, cache lookups will miss until it is", "addr", cfg.Redis.Addr, "error", err)
		}
		srvCfg.Cache = responseCache
		logger.Info("response cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	} else {
		logger.Info("response cache disabled")
	}

	// Alert publication (feature-flagged via KAFKA_ENABLED).
	if cfg.Kafka.Enabled {
		if err := queue.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.TopicAlerts, cfg.Kafka.NumPartitions, 1); err != nil {
			logger.Warn("could not provision alert topic", "topic", cfg.Kafka.TopicAlerts, "error", err)
		}
		producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicAlerts)
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Error("kafka producer close error", "error", err)
			}
		}()
		srvCfg.Publisher = producer
		logger.Info("alert publishing enabled", "topic", producer.Topic())
	} else {
		logger.Info("alert publishing disabled")
	}

	srv := api.NewServer(srvCfg)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
