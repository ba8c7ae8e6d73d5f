package main

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/notification/application"
	notificationKafka "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/notification/infrastructure/kafka"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/notification/infrastructure/logsender"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/config"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/consumer"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/idempotency"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/logging"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/shutdown"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/tracing"
)

func main() {
	config.Load()
	log := logging.New("notification-service")
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	brokers := config.Strings("KAFKA_BROKERS", []string{"localhost:9092"})

	tp, err := tracing.Init(ctx, "notification-service", config.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""), log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	rdb := redis.NewClient(&redis.Options{Addr: config.String("REDIS_ADDR", "localhost:6379")})
	defer rdb.Close()
	const group = "notification-service"
	idem := idempotency.NewStore(rdb, group, 24*time.Hour)

	svc := application.NewService(log, logsender.New(log), config.String("OPS_EMAIL", ""))
	reader := consumer.NewReader(brokers, group, notificationKafka.Topics...)
	c := notificationKafka.NewConsumer(log, reader, svc, idem)

	if err := c.Run(ctx); err != nil {
		log.Error("consumer stopped", "err", err)
		os.Exit(1)
	}
	log.Info("notification-service shutdown")
}
