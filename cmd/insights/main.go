package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/hetulpatel/sportsarb/internal/config"
	"github.com/hetulpatel/sportsarb/internal/impact"
	"github.com/hetulpatel/sportsarb/internal/lag"
	"github.com/hetulpatel/sportsarb/internal/logging"
	sqlstore "github.com/hetulpatel/sportsarb/internal/storage/sqlite"
)

func main() {
	godotenv.Load()
	logging.InitFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logging.Fatalf("[insights] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatalf("[insights] invalid config: %v", err)
	}

	store, err := sqlstore.Open(cfg.Storage.Database)
	if err != nil {
		logging.Fatalf("[insights] open sqlite: %v", err)
	}
	defer store.Close()

	eventsPath := os.Getenv("EVENTS_PATH")
	interval := time.Duration(envInt("INSIGHTS_INTERVAL_SECONDS", 300)) * time.Second

	logging.Infof("[insights] running every %s (lookback %s)", interval, cfg.Lag.Lookback())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runOnce(ctx, store, cfg, eventsPath)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce(ctx, store, cfg, eventsPath)
		}
	}
}

func runOnce(ctx context.Context, store *sqlstore.Store, cfg *config.Config, eventsPath string) {
	now := time.Now().UTC()
	history, err := store.LoadHistory(ctx, now.Add(-cfg.Lag.Lookback()))
	if err != nil {
		logging.Errorf("[insights] load history: %v", err)
		return
	}
	if len(history) == 0 {
		logging.Debugf("[insights] no history in lookback window")
		return
	}

	signals := lag.Detect(history, lag.Params{
		MinDelta: cfg.Lag.MinProbabilityDelta,
		MinLag:   cfg.Lag.MinLag(),
		MaxLag:   cfg.Lag.MaxLag(),
		Now:      now,
	})
	stored, err := store.InsertLagSignals(ctx, signals)
	if err != nil {
		logging.Errorf("[insights] store lag signals: %v", err)
	} else {
		logging.Infof("[insights] %d lag signals detected, %d stored", len(signals), stored)
	}

	events := loadEvents(eventsPath, now, cfg.Impact.MaxEventAge())
	if len(events) == 0 {
		return
	}
	impacts := impact.Compute(history, events, impact.Params{
		PreWindow:          cfg.Impact.PreWindow(),
		PostWindow:         cfg.Impact.PostWindow(),
		MinSnapshots:       cfg.Impact.MinSnapshotCount,
		DirectionThreshold: cfg.Impact.DirectionThreshold,
		Now:                now,
	})
	stored, err = store.UpsertImpacts(ctx, impacts)
	if err != nil {
		logging.Errorf("[insights] store impacts: %v", err)
	} else {
		logging.Infof("[insights] %d event impacts computed from %d events, %d stored", len(impacts), len(events), stored)
	}
}

// loadEvents reads structured events dropped by the extraction pipeline as a
// JSON array. Events older than maxAge are skipped.
func loadEvents(path string, now time.Time, maxAge time.Duration) []impact.Event {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		logging.Errorf("[insights] read events %s: %v", path, err)
		return nil
	}
	var all []impact.Event
	if err := json.Unmarshal(raw, &all); err != nil {
		logging.Errorf("[insights] parse events %s: %v", path, err)
		return nil
	}
	cutoff := now.Add(-maxAge)
	fresh := make([]impact.Event, 0, len(all))
	for _, ev := range all {
		if ev.Time.Before(cutoff) {
			continue
		}
		fresh = append(fresh, ev)
	}
	return fresh
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
