package workers

import (
	"context"
	"fmt"

	"github.com/hetulpatel/sportsarb/internal/logging"
	"github.com/hetulpatel/sportsarb/internal/market"
	"github.com/hetulpatel/sportsarb/internal/models"
	"github.com/hetulpatel/sportsarb/internal/odds"
	"github.com/hetulpatel/sportsarb/internal/storage/sqlite"
)

// Processor consumes quote snapshots off the bus, annotates de-vigged
// probabilities, and persists games and quotes.
type Processor struct {
	store *sqlite.Store
}

func NewProcessor(store *sqlite.Store) *Processor {
	return &Processor{store: store}
}

func (p *Processor) Handle(ctx context.Context, snap *models.QuoteSnapshot) error {
	if snap.Game.GameID == "" {
		return fmt.Errorf("snapshot from %s has no game id", snap.Provider)
	}
	if len(snap.Quotes) == 0 {
		logging.Debugf("empty snapshot for %s from %s", snap.Game.GameID, snap.Provider)
		return nil
	}

	quotes := make([]market.Quote, 0, len(snap.Quotes))
	for _, q := range snap.Quotes {
		if q.GameID == "" || q.Side == "" || q.ImpliedProb <= 0 {
			logging.Debugf("dropping unusable quote %s/%s/%s from %s", q.GameID, q.Market, q.Side, snap.Provider)
			continue
		}
		quotes = append(quotes, q)
	}
	if len(quotes) == 0 {
		return nil
	}

	refs := make([]*market.Quote, len(quotes))
	for i := range quotes {
		refs[i] = &quotes[i]
	}
	odds.Annotate(refs)

	if err := p.store.UpsertGames(ctx, []market.Game{snap.Game}); err != nil {
		return fmt.Errorf("upsert game %s: %w", snap.Game.GameID, err)
	}
	if err := p.store.UpsertQuotes(ctx, quotes); err != nil {
		return fmt.Errorf("upsert quotes for %s: %w", snap.Game.GameID, err)
	}

	logging.Debugf("stored %d quotes for %s from %s", len(quotes), snap.Game.GameID, snap.Provider)
	return nil
}
