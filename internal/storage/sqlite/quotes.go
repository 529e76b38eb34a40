package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hetulpatel/sportsarb/internal/market"
)

// UpsertGames inserts or refreshes canonical games. created_at is preserved
// on conflict; only last_seen_at and descriptive fields update.
func (s *Store) UpsertGames(ctx context.Context, games []market.Game) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlite store not initialized")
	}
	if len(games) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, gameUpsertSQL)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, g := range games {
		if g.GameID == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			g.GameID, g.League, g.HomeTeam, g.AwayTeam,
			formatTime(g.CommenceTime), now, now,
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

const gameUpsertSQL = `
INSERT INTO games (game_id, league, home_team, away_team, commence_time, created_at, last_seen_at)
VALUES (?,?,?,?,?,?,?)
ON CONFLICT(game_id) DO UPDATE SET
	league=excluded.league,
	home_team=excluded.home_team,
	away_team=excluded.away_team,
	commence_time=excluded.commence_time,
	last_seen_at=excluded.last_seen_at;
`

// UpsertQuotes writes one snapshot of quotes: market_latest gets a
// last-write-wins upsert on the quote key, market_history gets an append.
// Re-ingesting an identical snapshot is a no-op for history thanks to the
// unique index plus INSERT OR IGNORE.
func (s *Store) UpsertQuotes(ctx context.Context, quotes []market.Quote) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlite store not initialized")
	}
	if len(quotes) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	latest, err := tx.PrepareContext(ctx, latestUpsertSQL)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer latest.Close()
	history, err := tx.PrepareContext(ctx, historyInsertSQL)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer history.Close()

	for i := range quotes {
		q := &quotes[i]
		if q.GameID == "" || q.Side == "" {
			continue
		}
		devigged := sql.NullFloat64{}
		if q.DeviggedProb != nil {
			devigged = sql.NullFloat64{Float64: *q.DeviggedProb, Valid: true}
		}
		snapshotTime := q.CapturedAt
		if snapshotTime.IsZero() {
			snapshotTime = time.Now().UTC()
		}

		if _, err := latest.ExecContext(ctx,
			q.GameID, string(q.Market), string(q.Side), q.Line, string(q.Source), q.Provider, q.Player,
			q.Price, q.ImpliedProb, devigged,
			formatTime(q.ProviderUpdatedAt), formatTime(snapshotTime),
		); err != nil {
			tx.Rollback()
			return err
		}
		if _, err := history.ExecContext(ctx,
			q.GameID, string(q.Market), string(q.Side), q.Line, string(q.Source), q.Provider, q.Player,
			q.Price, q.ImpliedProb, devigged, formatTime(snapshotTime),
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

const latestUpsertSQL = `
INSERT INTO market_latest (
	game_id, market, side, line, source, provider, player,
	price, implied_prob, devigged_prob, provider_updated_at, captured_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(game_id, market, side, line, source, provider, player) DO UPDATE SET
	price=excluded.price,
	implied_prob=excluded.implied_prob,
	devigged_prob=excluded.devigged_prob,
	provider_updated_at=excluded.provider_updated_at,
	captured_at=excluded.captured_at;
`

const historyInsertSQL = `
INSERT OR IGNORE INTO market_history (
	game_id, market, side, line, source, provider, player,
	price, implied_prob, devigged_prob, snapshot_time
) VALUES (?,?,?,?,?,?,?,?,?,?,?)
`

// LoadLatest reads the full current quote snapshot.
func (s *Store) LoadLatest(ctx context.Context) ([]market.Quote, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlite store not initialized")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT game_id, market, side, line, source, provider, player,
	price, implied_prob, devigged_prob, provider_updated_at, captured_at
FROM market_latest`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Quote
	for rows.Next() {
		var (
			q                       market.Quote
			mkt, side, src          string
			devigged                sql.NullFloat64
			providerUpdated, capped string
		)
		if err := rows.Scan(&q.GameID, &mkt, &side, &q.Line, &src, &q.Provider, &q.Player,
			&q.Price, &q.ImpliedProb, &devigged, &providerUpdated, &capped); err != nil {
			return nil, err
		}
		q.Market = market.MarketType(mkt)
		q.Side = market.Side(side)
		q.Source = market.SourceCategory(src)
		if devigged.Valid {
			v := devigged.Float64
			q.DeviggedProb = &v
		}
		q.ProviderUpdatedAt = parseTime(providerUpdated)
		q.CapturedAt = parseTime(capped)
		out = append(out, q)
	}
	return out, rows.Err()
}

// LoadHistory reads the probability time series from since onward, ordered by
// snapshot time ascending. The devigged probability is preferred over the
// implied one when present.
func (s *Store) LoadHistory(ctx context.Context, since time.Time) ([]market.Observation, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlite store not initialized")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT game_id, market, side, line, source, provider, player,
	implied_prob, devigged_prob, snapshot_time
FROM market_history
WHERE snapshot_time >= ?
ORDER BY snapshot_time ASC`, formatTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Observation
	for rows.Next() {
		var (
			o              market.Observation
			mkt, side, src string
			implied        float64
			devigged       sql.NullFloat64
			snapshot       string
		)
		if err := rows.Scan(&o.GameID, &mkt, &side, &o.Line, &src, &o.Provider, &o.Player,
			&implied, &devigged, &snapshot); err != nil {
			return nil, err
		}
		o.Market = market.MarketType(mkt)
		o.Side = market.Side(side)
		o.Source = market.SourceCategory(src)
		o.Prob = implied
		if devigged.Valid && devigged.Float64 > 0 {
			o.Prob = devigged.Float64
		}
		o.Time = parseTime(snapshot)
		if o.Prob <= 0 || o.Time.IsZero() {
			continue
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
