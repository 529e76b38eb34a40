package collectors

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hetulpatel/sportsarb/internal/canon"
	"github.com/hetulpatel/sportsarb/internal/market"
)

// FileCollector reads aggregator feed payloads from a JSON file dropped by an
// external fetcher. Each Fetch re-reads the file, so a refreshed drop is
// picked up on the next loop iteration.
type FileCollector struct {
	name     string
	path     string
	source   market.SourceCategory
	resolver canon.Resolver
}

func NewFileCollector(name, path string, source market.SourceCategory, resolver canon.Resolver) *FileCollector {
	return &FileCollector{name: name, path: path, source: source, resolver: resolver}
}

func (c *FileCollector) Name() string {
	return c.name
}

func (c *FileCollector) Fetch(ctx context.Context, opts FetchOptions) ([]GameFeed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", c.path, err)
	}

	var payloads []Payload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		// Single-league payloads are allowed as a bare object.
		var single Payload
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("parse feed %s: %w", c.path, err)
		}
		payloads = []Payload{single}
	}

	now := time.Now().UTC()
	var feeds []GameFeed
	for _, p := range payloads {
		if !leagueWanted(p.League, opts.Leagues) {
			continue
		}
		for _, feed := range ParseFeed(p, c.resolver, c.source, now) {
			if !Bettable(feed.Game.CommenceTime, now, opts.WindowDays) {
				continue
			}
			feeds = append(feeds, feed)
		}
	}
	return feeds, nil
}

func leagueWanted(league string, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	norm := canon.Normalize(league)
	for _, w := range wanted {
		if canon.Normalize(w) == norm {
			return true
		}
	}
	return false
}
