package sqlite

import (
	"context"
	"fmt"

	"github.com/hetulpatel/sportsarb/internal/impact"
	"github.com/hetulpatel/sportsarb/internal/lag"
	"github.com/hetulpatel/sportsarb/internal/logging"
)

// InsertLagSignals appends detected lag signals. A failed individual insert
// is logged and skipped so one bad row cannot abort the batch; the returned
// count is how many rows were actually stored.
func (s *Store) InsertLagSignals(ctx context.Context, signals []lag.Signal) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlite store not initialized")
	}
	stored := 0
	for i := range signals {
		sig := &signals[i]
		_, err := s.db.ExecContext(ctx, lagInsertSQL,
			sig.RunID, sig.GameID, string(sig.Market), string(sig.Side), sig.Line, sig.Player,
			string(sig.LeaderSource), sig.LeaderProvider, string(sig.LaggerSource), sig.LaggerProvider,
			formatTime(sig.LeaderMoveTime), formatTime(sig.LaggerMoveTime), sig.LagSeconds,
			sig.LeaderProbBefore, sig.LeaderProbAfter, sig.LaggerProbBefore, sig.LaggerProbAfter,
			sig.ProbabilityDelta, sig.SignalStrength, formatTime(sig.DetectedAt),
		)
		if err != nil {
			logging.Errorf("insert lag signal %s/%s: %v", sig.GameID, sig.Market, err)
			continue
		}
		stored++
	}
	return stored, nil
}

const lagInsertSQL = `
INSERT INTO market_lag_signals (
	run_id, game_id, market, side, line, player,
	leader_source, leader_provider, lagger_source, lagger_provider,
	leader_move_time, lagger_move_time, lag_seconds,
	leader_prob_before, leader_prob_after, lagger_prob_before, lagger_prob_after,
	probability_delta, signal_strength, detected_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
`

// UpsertImpacts stores computed event impacts, replacing an earlier
// computation for the same (event, market, provider). Individual failures
// are logged and skipped.
func (s *Store) UpsertImpacts(ctx context.Context, impacts []impact.Impact) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlite store not initialized")
	}
	stored := 0
	for i := range impacts {
		imp := &impacts[i]
		_, err := s.db.ExecContext(ctx, impactUpsertSQL,
			imp.EventID, imp.GameID, string(imp.Market), string(imp.Side), imp.Line, imp.Player,
			string(imp.Source), imp.Provider,
			imp.BaselineProb, formatTime(imp.BaselineTime),
			imp.MaxProb, imp.MinProb, imp.ImpactProb, imp.ImpactDelta, string(imp.Direction),
			formatTime(imp.ImpactTime), imp.SnapshotCount, formatTime(imp.ComputedAt),
		)
		if err != nil {
			logging.Errorf("upsert impact %s/%s/%s: %v", imp.EventID, imp.GameID, imp.Market, err)
			continue
		}
		stored++
	}
	return stored, nil
}

const impactUpsertSQL = `
INSERT INTO event_market_impacts (
	event_id, game_id, market, side, line, player, source, provider,
	baseline_prob, baseline_time, max_prob, min_prob,
	impact_prob, impact_delta, impact_direction, impact_time,
	snapshot_count, computed_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(event_id, game_id, market, side, line, player, source, provider) DO UPDATE SET
	baseline_prob=excluded.baseline_prob,
	baseline_time=excluded.baseline_time,
	max_prob=excluded.max_prob,
	min_prob=excluded.min_prob,
	impact_prob=excluded.impact_prob,
	impact_delta=excluded.impact_delta,
	impact_direction=excluded.impact_direction,
	impact_time=excluded.impact_time,
	snapshot_count=excluded.snapshot_count,
	computed_at=excluded.computed_at;
`
