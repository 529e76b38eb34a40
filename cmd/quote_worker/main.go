package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/hetulpatel/sportsarb/internal/config"
	"github.com/hetulpatel/sportsarb/internal/kafka"
	"github.com/hetulpatel/sportsarb/internal/logging"
	sqlstore "github.com/hetulpatel/sportsarb/internal/storage/sqlite"
	"github.com/hetulpatel/sportsarb/internal/workers"
)

func main() {
	godotenv.Load()
	logging.InitFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logging.Fatalf("[quote-worker] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatalf("[quote-worker] invalid config: %v", err)
	}

	brokers := cfg.Kafka.Brokers
	if os.Getenv("KAFKA_BROKERS") != "" {
		brokers = kafka.Brokers()
	}
	topic := kafka.TopicFromEnv("QUOTES_KAFKA_TOPIC", cfg.Kafka.QuoteTopic)

	waitCtx, cancel := context.WithTimeout(ctx, 45*time.Second)
	if err := kafka.WaitForBroker(waitCtx, brokers); err != nil {
		logging.Fatalf("[quote-worker] wait for broker: %v", err)
	}
	cancel()

	ensureCtx, cancelEnsure := context.WithTimeout(ctx, 30*time.Second)
	if err := kafka.EnsureTopic(ensureCtx, brokers, topic); err != nil {
		logging.Warnf("[quote-worker] ensure topic: %v", err)
	}
	cancelEnsure()

	store, err := sqlstore.Open(cfg.Storage.Database)
	if err != nil {
		logging.Fatalf("[quote-worker] open sqlite: %v", err)
	}
	defer store.Close()

	processor := workers.NewProcessor(store)
	logging.Infof("[quote-worker] consuming %s with group %s (%d workers)", topic, cfg.Kafka.Group, cfg.Kafka.Workers)
	workers.Run(ctx, brokers, topic, cfg.Kafka.Group, cfg.Kafka.Workers, processor.Handle)
}
