// Command alertwatch tails the analytics alert topic and logs every alert
// raised by the analytics service.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/smukkama/city-analytics/internal/analytics"
	"github.com/smukkama/city-analytics/internal/logging"
	"github.com/smukkama/city-analytics/internal/protocol"
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

	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicAlerts, "alertwatch-group", logger)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("watching alerts", "topic", cfg.Kafka.TopicAlerts, "brokers", cfg.Kafka.Brokers)

	err = consumer.Run(ctx, func(_ context.Context, msg *protocol.AlertMessage) error {
		level := slog.LevelWarn
		if msg.Alert.Severity == analytics.SeverityCritical {
			level = slog.LevelError
		}
		logger.Log(ctx, level, msg.Alert.Message,
			"alert_id", msg.ID,
			"request_id", msg.RequestID,
			"city", msg.Key(),
			"type", msg.Alert.Type,
			"severity", msg.Alert.Severity,
			"average_aqi", msg.AverageAQI,
			"active_sensors", msg.ActiveSensors,
			"reference", msg.Reference,
		)
		return nil
	})
	if err != nil {
		logger.Error("alert consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
