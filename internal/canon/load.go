package canon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Alias files live in a directory deployed alongside the binaries. A missing
// file yields an empty map, matching the behavior of an unconfigured league.
const (
	teamsFile     = "teams.yaml"
	playersFile   = "player_aliases.yaml"
	marketsFile   = "market_aliases.yaml"
	providersFile = "provider_aliases.yaml"
)

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the process-wide Table loaded from ALIASES_DIR (falling back
// to data/aliases). Loaded once; aliases only change on deployment.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		dir := os.Getenv("ALIASES_DIR")
		if dir == "" {
			dir = "data/aliases"
		}
		defaultTable, defaultErr = Load(dir)
	})
	return defaultTable, defaultErr
}

// Load reads the alias YAML files from dir and builds a Table.
func Load(dir string) (*Table, error) {
	var teams map[string][]TeamEntry
	if err := readYAML(filepath.Join(dir, teamsFile), &teams); err != nil {
		return nil, fmt.Errorf("load team aliases: %w", err)
	}

	players, err := readAliasMap(filepath.Join(dir, playersFile))
	if err != nil {
		return nil, fmt.Errorf("load player aliases: %w", err)
	}
	markets, err := readAliasMap(filepath.Join(dir, marketsFile))
	if err != nil {
		return nil, fmt.Errorf("load market aliases: %w", err)
	}
	providers, err := readAliasMap(filepath.Join(dir, providersFile))
	if err != nil {
		return nil, fmt.Errorf("load provider aliases: %w", err)
	}

	return NewTable(teams, players, markets, providers), nil
}

func readAliasMap(path string) (map[string][]string, error) {
	var m map[string][]string
	if err := readYAML(path, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func readYAML(path string, out any) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	return v.Unmarshal(out)
}
