package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hetulpatel/sportsarb/internal/arb"
	"github.com/hetulpatel/sportsarb/internal/cache"
	"github.com/hetulpatel/sportsarb/internal/config"
	"github.com/hetulpatel/sportsarb/internal/hashutil"
	"github.com/hetulpatel/sportsarb/internal/logging"
	"github.com/hetulpatel/sportsarb/internal/market"
	"github.com/hetulpatel/sportsarb/internal/middles"
	"github.com/hetulpatel/sportsarb/internal/odds"
	sqlstore "github.com/hetulpatel/sportsarb/internal/storage/sqlite"
)

func main() {
	godotenv.Load()
	logging.InitFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logging.Fatalf("[detect] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatalf("[detect] invalid config: %v", err)
	}

	store, err := sqlstore.Open(cfg.Storage.Database)
	if err != nil {
		logging.Fatalf("[detect] open sqlite: %v", err)
	}
	defer store.Close()

	var oppCache cache.OpportunityCache
	if cfg.Redis.Enabled {
		oppCache, err = cache.NewRedisOpportunityCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL(), "")
		if err != nil {
			logging.Fatalf("[detect] redis cache: %v", err)
		}
		defer oppCache.Close()
	}

	quotes, err := store.LoadLatest(ctx)
	if err != nil {
		logging.Fatalf("[detect] load quotes: %v", err)
	}
	if len(quotes) == 0 {
		logging.Infof("[detect] no quotes in store, nothing to scan")
		return
	}

	refs := make([]*market.Quote, len(quotes))
	for i := range quotes {
		refs[i] = &quotes[i]
	}
	odds.Annotate(refs)

	now := time.Now().UTC()
	arbCfg := arb.Config{
		MinEdge:    cfg.Arbitrage.MinEdge(),
		MaxDataAge: cfg.Arbitrage.MaxDataAge(),
		Bankroll:   cfg.Arbitrage.ReferenceBankroll,
		Now:        now,
	}
	byCategory := arb.DetectAll(quotes, arbCfg)

	midCfg := middles.Config{
		MinGapSpread: cfg.Middles.MinGapPoints,
		MinGapTotal:  cfg.Middles.MinGapTotal,
		MinGapProp:   cfg.Middles.MinGapProp,
		MaxDataAge:   cfg.Arbitrage.MaxDataAge(),
		Bankroll:     cfg.Arbitrage.ReferenceBankroll,
		Estimator: middles.NormalEstimator{
			SpreadStdDev: cfg.Middles.SpreadStdDev,
			TotalStdDev:  cfg.Middles.TotalStdDev,
			PropStdDev:   cfg.Middles.PropStdDev,
		},
		Now: now,
	}
	midQuotes := quotes
	if !cfg.Middles.PlayerProps {
		filtered := make([]market.Quote, 0, len(quotes))
		for _, q := range quotes {
			if !q.Market.IsPlayerProp() {
				filtered = append(filtered, q)
			}
		}
		midQuotes = filtered
	}
	mids := middles.Detect(midQuotes, midCfg)

	reportArbs(ctx, byCategory, oppCache)
	reportMiddles(mids)
}

func reportArbs(ctx context.Context, byCategory map[arb.Category][]arb.Opportunity, oppCache cache.OpportunityCache) {
	total, fresh := 0, 0
	for _, category := range []arb.Category{arb.CategoryOpenMarket, arb.CategorySportsbook, arb.CategoryCrossMarket, arb.CategoryPlayerProp} {
		for i := range byCategory[category] {
			op := &byCategory[category][i]
			total++
			if suppressed(ctx, oppCache, op) {
				continue
			}
			fresh++
			printOpportunity(op)
		}
	}
	logging.Infof("[detect] %d arbitrage opportunities (%d new)", total, fresh)
}

// suppressed consults the dedup cache: an opportunity already reported with
// the same or better margin is skipped, anything else is (re)recorded.
func suppressed(ctx context.Context, oppCache cache.OpportunityCache, op *arb.Opportunity) bool {
	if oppCache == nil {
		return false
	}
	key := op.CacheKey()
	record, found, err := oppCache.Get(ctx, key)
	if err != nil {
		logging.Errorf("[detect] cache get %s: %v", hashutil.Short(key), err)
		return false
	}
	if found && record.Margin >= op.Margin {
		return true
	}
	err = oppCache.Set(ctx, key, cache.OpportunityRecord{
		Category:  string(op.Category),
		Margin:    op.Margin,
		GameID:    op.GameID,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		logging.Errorf("[detect] cache set %s: %v", hashutil.Short(key), err)
	}
	return false
}

func printOpportunity(op *arb.Opportunity) {
	legs := make([]string, 0, len(op.Legs))
	for _, leg := range op.Legs {
		legs = append(legs, fmt.Sprintf("%s@%s %s %.1f (p=%.4f stake=%.2f)",
			leg.Provider, leg.Source, leg.Side, leg.Line, leg.Prob, leg.Stake))
	}
	fmt.Printf("[arb] %s %s %s%s margin=%.4f profit=%.2f | %s\n",
		op.Category, op.GameID, op.Market, playerSuffix(op.Player), op.Margin, op.GuaranteedProfit,
		strings.Join(legs, " / "))
}

func reportMiddles(mids []middles.Opportunity) {
	for i := range mids {
		m := &mids[i]
		fmt.Printf("[middle] %s %s %s%s gap=%.1f p(gap)=%.4f ev=%.2f | %s\n",
			m.Category, m.GameID, m.Market, playerSuffix(m.Player), m.Gap, m.GapProb, m.EV, m.Description)
	}
	logging.Infof("[detect] %d middle opportunities", len(mids))
}

func playerSuffix(player string) string {
	if player == "" {
		return ""
	}
	return " " + player
}
