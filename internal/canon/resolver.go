package canon

import (
	"fmt"
	"sort"
	"time"
)

// Resolver maps raw provider labels onto canonical keys. Implementations are
// read-only after construction; callers must treat an empty result as
// "unmatched" and drop the record rather than storing a blank join key.
type Resolver interface {
	Team(name, league string) string
	Player(name string) string
	Market(name string) string
	Provider(name string) string
}

// EventID builds a deterministic game identifier from the league, the two
// teams, and the date (date-only, UTC). Canonical team keys are sorted so the
// id does not depend on which side a provider reports first.
func EventID(r Resolver, league, teamA, teamB string, date time.Time) string {
	a := r.Team(teamA, league)
	b := r.Team(teamB, league)
	if a == "" || b == "" {
		return ""
	}
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%s_%s_%s_%s", date.UTC().Format("2006-01-02"), Normalize(league), a, b)
}

// Table is the in-memory alias lookup backing Resolver. Alias maps only change
// on deployment, so a Table is built once and shared for the process lifetime.
type Table struct {
	teamsByLeague map[string]map[string][]string // league -> normalized alias -> canonical keys
	teamsGlobal   map[string][]string            // normalized alias -> canonical keys
	players       map[string]string
	markets       map[string]string
	providers     map[string]string
}

// TeamEntry describes one team in the alias tables.
type TeamEntry struct {
	Key     string   `mapstructure:"key"`
	Name    string   `mapstructure:"name"`
	City    string   `mapstructure:"city"`
	Abbrev  string   `mapstructure:"abbrev"`
	Aliases []string `mapstructure:"aliases"`
}

// NewTable builds a Table from decoded alias maps. The teams argument is keyed
// by league; the remaining maps are canonical key -> aliases.
func NewTable(teams map[string][]TeamEntry, players, markets, providers map[string][]string) *Table {
	t := &Table{
		teamsByLeague: make(map[string]map[string][]string),
		teamsGlobal:   make(map[string][]string),
		players:       buildLookup(players),
		markets:       buildLookup(markets),
		providers:     buildLookup(providers),
	}
	for league, entries := range teams {
		for _, entry := range entries {
			key := entry.Key
			if key == "" {
				key = Normalize(entry.Name)
			}
			if key == "" {
				continue
			}
			aliases := append([]string{entry.Name, entry.City, entry.Abbrev}, entry.Aliases...)
			for _, alias := range aliases {
				norm := Normalize(alias)
				if norm == "" {
					continue
				}
				t.addTeamAlias(league, norm, key)
			}
		}
	}
	return t
}

func (t *Table) addTeamAlias(league, norm, key string) {
	if t.teamsByLeague[league] == nil {
		t.teamsByLeague[league] = make(map[string][]string)
	}
	t.teamsByLeague[league][norm] = appendUnique(t.teamsByLeague[league][norm], key)
	t.teamsGlobal[norm] = appendUnique(t.teamsGlobal[norm], key)
}

func appendUnique(keys []string, key string) []string {
	for _, k := range keys {
		if k == key {
			return keys
		}
	}
	return append(keys, key)
}

func buildLookup(mapping map[string][]string) map[string]string {
	lookup := make(map[string]string)
	for canonical, aliases := range mapping {
		if canonical == "" {
			continue
		}
		if norm := Normalize(canonical); norm != "" {
			lookup[norm] = canonical
		}
		for _, alias := range aliases {
			if norm := Normalize(alias); norm != "" {
				lookup[norm] = canonical
			}
		}
	}
	return lookup
}

// Team resolves a team name to its canonical key. League-scoped aliases win;
// a global alias is used only when it is unambiguous. When several canonical
// keys share the normalized token, the token itself is returned rather than
// guessing between them.
func (t *Table) Team(name, league string) string {
	norm := Normalize(name)
	if norm == "" {
		return ""
	}
	if league != "" {
		if keys := t.teamsByLeague[league][norm]; len(keys) > 0 {
			sorted := append([]string(nil), keys...)
			sort.Strings(sorted)
			return sorted[0]
		}
	}
	if keys := t.teamsGlobal[norm]; len(keys) == 1 {
		return keys[0]
	}
	return norm
}

// Player resolves a player name, falling back to the normalized token.
func (t *Table) Player(name string) string {
	norm := Normalize(name)
	if norm == "" {
		return ""
	}
	if key, ok := t.players[norm]; ok {
		return key
	}
	return norm
}

// Market resolves a market label, falling back to the normalized token.
func (t *Table) Market(name string) string {
	norm := Normalize(name)
	if norm == "" {
		return ""
	}
	if key, ok := t.markets[norm]; ok {
		return key
	}
	return norm
}

// Provider resolves a provider label, falling back to the normalized token.
func (t *Table) Provider(name string) string {
	norm := Normalize(name)
	if norm == "" {
		return ""
	}
	if key, ok := t.providers[norm]; ok {
		return key
	}
	return norm
}
