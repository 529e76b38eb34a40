package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/hetulpatel/sportsarb/internal/market"
	"github.com/hetulpatel/sportsarb/internal/models"
)

// PublishQuotes writes one message per game onto the quote topic. Messages
// are keyed by provider and game so a partition sees a stable ordering for
// each (provider, game) stream.
func PublishQuotes(ctx context.Context, writer *kafka.Writer, provider string, games []market.Game, quotesByGame map[string][]market.Quote) error {
	if writer == nil || len(games) == 0 {
		return nil
	}

	captured := time.Now().UTC()
	msgs := make([]kafka.Message, 0, len(games))

	for _, g := range games {
		quotes := quotesByGame[g.GameID]
		if len(quotes) == 0 {
			continue
		}
		snapshot := models.NewSnapshot(provider, g, quotes, captured)
		payload, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("marshal snapshot %s: %w", g.GameID, err)
		}
		key := fmt.Sprintf("%s-%s", provider, g.GameID)
		msgs = append(msgs, kafka.Message{Key: []byte(key), Value: payload})
	}

	if len(msgs) == 0 {
		return nil
	}
	return writer.WriteMessages(ctx, msgs...)
}
