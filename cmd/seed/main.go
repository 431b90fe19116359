// Command seed fills a SQLite readings store with simulated station data
// for local runs of the analytics server.
//
// Usage:
//
//	go run ./cmd/seed -db city_metrics.db -days 35 -end 2025-09-01
package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/smukkama/city-analytics/internal/database"
	"github.com/smukkama/city-analytics/internal/logging"
	"github.com/smukkama/city-analytics/internal/seed"
	"github.com/smukkama/city-analytics/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	defaults := seed.DefaultOptions(cfg.Analytics.Reference)

	path := flag.String("db", cfg.Database.Path, "SQLite database file")
	days := flag.Int("days", defaults.Days, "days of history to generate")
	sensors := flag.Int("sensors", defaults.SensorsPerZone, "sensors per zone")
	cities := flag.String("cities", strings.Join(defaults.Cities, ","), "comma separated city names")
	endFlag := flag.String("end", "", "last reading date (YYYY-MM-DD), defaults to the analytics reference")
	seedFlag := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	opts := defaults
	opts.Days = *days
	opts.SensorsPerZone = *sensors
	opts.Cities = strings.Split(*cities, ",")
	if *endFlag != "" {
		end, err := time.Parse("2006-01-02", *endFlag)
		if err != nil {
			logger.Error("invalid -end", "value", *endFlag, "error", err)
			os.Exit(1)
		}
		opts.End = end
	}
	if opts.End.IsZero() {
		opts.End = time.Now().UTC().Truncate(time.Hour)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, "sqlite3", config.DatabaseConfig{Driver: "sqlite3", Path: *path}.DSN(), database.PoolConfig{MaxOpenConns: 1})
	if err != nil {
		logger.Error("failed to open database", "path", *path, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSQLiteSchema(ctx); err != nil {
		logger.Error("failed to create schema", "error", err)
		os.Exit(1)
	}

	start := time.Now()
	stats, err := seed.NewGenerator(db, rand.New(rand.NewSource(*seedFlag)), opts).Generate(ctx)
	if err != nil {
		logger.Error("failed to generate readings", "error", err)
		os.Exit(1)
	}

	logger.Info("seeded readings store",
		"path", *path,
		"cities", stats.Cities,
		"zones", stats.Zones,
		"sensors", stats.Sensors,
		"readings", stats.Readings,
		"end", opts.End,
		"elapsed", time.Since(start),
	)
}
