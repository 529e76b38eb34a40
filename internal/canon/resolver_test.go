package canon

import (
	"testing"
	"time"
)

func testTable() *Table {
	teams := map[string][]TeamEntry{
		"nba": {
			{Key: "lakers", Name: "Los Angeles Lakers", City: "Los Angeles", Abbrev: "LAL"},
			{Key: "celtics", Name: "Boston Celtics", City: "Boston", Abbrev: "BOS"},
		},
		"wnba": {
			{Key: "sparks", Name: "Los Angeles Sparks", City: "Los Angeles", Abbrev: "LAS"},
		},
	}
	players := map[string][]string{
		"lebron_james": {"LeBron James", "L. James"},
	}
	markets := map[string][]string{
		"h2h": {"moneyline", "head to head"},
	}
	providers := map[string][]string{
		"draftkings": {"DK", "Draft Kings"},
	}
	return NewTable(teams, players, markets, providers)
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Los Angeles Lakers": "losangeleslakers",
		"L.A. LAKERS!":       "lalakers",
		"  ":                 "",
		"Under 220.5":        "under2205",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTeam_LeagueScopedAlias(t *testing.T) {
	table := testTable()
	if got := table.Team("Los Angeles Lakers", "nba"); got != "lakers" {
		t.Errorf("expected lakers, got %q", got)
	}
	if got := table.Team("LAL", "nba"); got != "lakers" {
		t.Errorf("abbrev lookup: expected lakers, got %q", got)
	}
}

func TestTeam_AmbiguousGlobalFallsBackToToken(t *testing.T) {
	table := testTable()
	// "Los Angeles" maps to both lakers and sparks globally; without a league
	// scope the resolver must return the normalized token, never guess.
	if got := table.Team("Los Angeles", ""); got != "losangeles" {
		t.Errorf("expected normalized token losangeles, got %q", got)
	}
	// League scope disambiguates.
	if got := table.Team("Los Angeles", "wnba"); got != "sparks" {
		t.Errorf("expected sparks, got %q", got)
	}
}

func TestTeam_UnambiguousGlobal(t *testing.T) {
	table := testTable()
	if got := table.Team("Boston", ""); got != "celtics" {
		t.Errorf("expected celtics via unique global alias, got %q", got)
	}
}

func TestTeam_EmptyInput(t *testing.T) {
	table := testTable()
	if got := table.Team("", "nba"); got != "" {
		t.Errorf("empty input must yield empty key, got %q", got)
	}
}

func TestPlayerMarketProviderResolution(t *testing.T) {
	table := testTable()
	if got := table.Player("L. James"); got != "lebron_james" {
		t.Errorf("player alias: got %q", got)
	}
	if got := table.Player("Unknown Guy"); got != "unknownguy" {
		t.Errorf("unmapped player should normalize: got %q", got)
	}
	if got := table.Market("Moneyline"); got != "h2h" {
		t.Errorf("market alias: got %q", got)
	}
	if got := table.Provider("Draft Kings"); got != "draftkings" {
		t.Errorf("provider alias: got %q", got)
	}
}

func TestEventID_OrderIndependent(t *testing.T) {
	table := testTable()
	date := time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)

	ab := EventID(table, "nba", "Los Angeles Lakers", "Boston Celtics", date)
	ba := EventID(table, "nba", "Boston Celtics", "Los Angeles Lakers", date)
	if ab == "" {
		t.Fatal("expected non-empty event id")
	}
	if ab != ba {
		t.Errorf("event id must not depend on team order: %q vs %q", ab, ba)
	}
	if want := "2026-03-14_nba_celtics_lakers"; ab != want {
		t.Errorf("event id = %q, want %q", ab, want)
	}
}

func TestEventID_DateOnlyUTC(t *testing.T) {
	table := testTable()
	est := time.FixedZone("EST", -5*3600)
	late := time.Date(2026, 3, 14, 23, 0, 0, 0, est) // 2026-03-15 UTC
	noon := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	a := EventID(table, "nba", "LAL", "BOS", late)
	b := EventID(table, "nba", "LAL", "BOS", noon)
	if a != b {
		t.Errorf("same UTC date must produce same id: %q vs %q", a, b)
	}
}

func TestEventID_UnmatchedTeamYieldsEmpty(t *testing.T) {
	table := testTable()
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if got := EventID(table, "nba", "", "Boston Celtics", date); got != "" {
		t.Errorf("empty team must yield empty id, got %q", got)
	}
}
