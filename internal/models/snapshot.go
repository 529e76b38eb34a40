package models

import (
	"time"

	"github.com/hetulpatel/sportsarb/internal/market"
)

// QuoteSnapshot is the payload placed on the quote Kafka topic: one
// provider's view of one game at one capture instant.
type QuoteSnapshot struct {
	Provider   string         `json:"provider"`
	Game       market.Game    `json:"game"`
	Quotes     []market.Quote `json:"quotes"`
	CapturedAt time.Time      `json:"captured_at"`
}

// NewSnapshot stamps the capture time onto every quote so the history table
// records one consistent snapshot_time per batch.
func NewSnapshot(provider string, game market.Game, quotes []market.Quote, capturedAt time.Time) QuoteSnapshot {
	stamped := make([]market.Quote, len(quotes))
	copy(stamped, quotes)
	for i := range stamped {
		stamped[i].CapturedAt = capturedAt
	}
	return QuoteSnapshot{
		Provider:   provider,
		Game:       game,
		Quotes:     stamped,
		CapturedAt: capturedAt,
	}
}
