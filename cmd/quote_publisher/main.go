package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/hetulpatel/sportsarb/internal/canon"
	"github.com/hetulpatel/sportsarb/internal/collectors"
	"github.com/hetulpatel/sportsarb/internal/config"
	"github.com/hetulpatel/sportsarb/internal/kafka"
	"github.com/hetulpatel/sportsarb/internal/logging"
	"github.com/hetulpatel/sportsarb/internal/market"
	"github.com/hetulpatel/sportsarb/internal/queue"
)

// Reads aggregator feed payloads dropped as JSON files, canonicalizes them,
// and publishes quote snapshots onto the bus. The fetching side that writes
// the payload files is a separate collaborator.
func main() {
	godotenv.Load()
	logging.InitFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logging.Fatalf("[quote-publisher] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatalf("[quote-publisher] invalid config: %v", err)
	}

	feedPath := os.Getenv("FEED_PATH")
	if feedPath == "" {
		logging.Fatalf("[quote-publisher] FEED_PATH is required")
	}
	source := market.SourceCategory(os.Getenv("FEED_SOURCE"))
	if source == "" {
		source = market.SourceSportsbook
	}
	feedName := os.Getenv("FEED_NAME")
	if feedName == "" {
		feedName = "aggregator"
	}

	if dir := cfg.Aliases.Dir; dir != "" && os.Getenv("ALIASES_DIR") == "" {
		os.Setenv("ALIASES_DIR", dir)
	}
	resolver, err := canon.Default()
	if err != nil {
		logging.Fatalf("[quote-publisher] load aliases: %v", err)
	}

	brokers := cfg.Kafka.Brokers
	if os.Getenv("KAFKA_BROKERS") != "" {
		brokers = kafka.Brokers()
	}
	topic := kafka.TopicFromEnv("QUOTES_KAFKA_TOPIC", cfg.Kafka.QuoteTopic)

	waitCtx, cancel := context.WithTimeout(ctx, 45*time.Second)
	if err := kafka.WaitForBroker(waitCtx, brokers); err != nil {
		logging.Fatalf("[quote-publisher] wait for broker: %v", err)
	}
	cancel()

	ensureCtx, cancelEnsure := context.WithTimeout(ctx, 30*time.Second)
	if err := kafka.EnsureTopic(ensureCtx, brokers, topic); err != nil {
		logging.Warnf("[quote-publisher] ensure topic: %v", err)
	}
	cancelEnsure()

	writer := kafka.NewWriter(brokers, topic)
	defer writer.Close()

	collector := collectors.NewFileCollector(feedName, feedPath, source, resolver)
	opts := collectors.FetchOptions{WindowDays: envInt("FEED_WINDOW_DAYS", 0)}

	publish := func(ctx context.Context, feeds []collectors.GameFeed) error {
		games := make([]market.Game, 0, len(feeds))
		quotesByGame := make(map[string][]market.Quote, len(feeds))
		total := 0
		for _, f := range feeds {
			games = append(games, f.Game)
			quotesByGame[f.Game.GameID] = f.Quotes
			total += len(f.Quotes)
		}
		if err := queue.PublishQuotes(ctx, writer, feedName, games, quotesByGame); err != nil {
			return err
		}
		logging.Infof("[quote-publisher] published %d quotes across %d games to %s", total, len(games), topic)
		return nil
	}

	// With no interval the file is published once; otherwise the loop
	// re-reads it so refreshed drops keep flowing onto the bus.
	interval := time.Duration(envInt("PUBLISH_INTERVAL_SECONDS", 0)) * time.Second
	if interval <= 0 {
		feeds, err := collector.Fetch(ctx, opts)
		if err != nil {
			logging.Fatalf("[quote-publisher] fetch: %v", err)
		}
		if len(feeds) == 0 {
			logging.Infof("[quote-publisher] nothing usable in %s", feedPath)
			return
		}
		if err := publish(ctx, feeds); err != nil {
			logging.Fatalf("[quote-publisher] publish: %v", err)
		}
		return
	}
	collectors.RunLoop(ctx, collector, opts, interval, publish)
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
