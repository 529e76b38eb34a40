package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete engine configuration, read from a YAML file with
// environment overrides under the SPORTSARB prefix.
type Config struct {
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Middles   MiddlesConfig   `mapstructure:"middles"`
	Lag       LagConfig       `mapstructure:"lag"`
	Impact    ImpactConfig    `mapstructure:"impact"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Aliases   AliasesConfig   `mapstructure:"aliases"`
}

type ArbitrageConfig struct {
	MinEdgePercent    float64 `mapstructure:"min_edge_percent"`
	MaxDataAgeSeconds int     `mapstructure:"max_data_age_seconds"`
	ReferenceBankroll float64 `mapstructure:"reference_bankroll"`
}

// MinEdge returns the percentage threshold as a fraction.
func (c ArbitrageConfig) MinEdge() float64 {
	return c.MinEdgePercent / 100
}

func (c ArbitrageConfig) MaxDataAge() time.Duration {
	return time.Duration(c.MaxDataAgeSeconds) * time.Second
}

type MiddlesConfig struct {
	MinGapPoints float64 `mapstructure:"min_gap_points"`
	MinGapTotal  float64 `mapstructure:"min_gap_total"`
	MinGapProp   float64 `mapstructure:"min_gap_prop"`
	SpreadStdDev float64 `mapstructure:"spread_std_dev"`
	TotalStdDev  float64 `mapstructure:"total_std_dev"`
	PropStdDev   float64 `mapstructure:"prop_std_dev"`
	PlayerProps  bool    `mapstructure:"player_props"`
}

type LagConfig struct {
	LookbackMinutes     int     `mapstructure:"lookback_minutes"`
	MinProbabilityDelta float64 `mapstructure:"min_probability_delta"`
	MinLagSeconds       int     `mapstructure:"min_lag_seconds"`
	MaxLagSeconds       int     `mapstructure:"max_lag_seconds"`
}

func (c LagConfig) Lookback() time.Duration {
	return time.Duration(c.LookbackMinutes) * time.Minute
}

func (c LagConfig) MinLag() time.Duration {
	return time.Duration(c.MinLagSeconds) * time.Second
}

func (c LagConfig) MaxLag() time.Duration {
	return time.Duration(c.MaxLagSeconds) * time.Second
}

type ImpactConfig struct {
	PreWindowMinutes   int     `mapstructure:"pre_window_minutes"`
	PostWindowMinutes  int     `mapstructure:"post_window_minutes"`
	MaxEventAgeHours   int     `mapstructure:"max_event_age_hours"`
	MinSnapshotCount   int     `mapstructure:"min_snapshot_count"`
	DirectionThreshold float64 `mapstructure:"direction_threshold"`
}

func (c ImpactConfig) PreWindow() time.Duration {
	return time.Duration(c.PreWindowMinutes) * time.Minute
}

func (c ImpactConfig) PostWindow() time.Duration {
	return time.Duration(c.PostWindowMinutes) * time.Minute
}

func (c ImpactConfig) MaxEventAge() time.Duration {
	return time.Duration(c.MaxEventAgeHours) * time.Hour
}

type StorageConfig struct {
	Database string `mapstructure:"database"`
}

type KafkaConfig struct {
	Brokers    []string `mapstructure:"brokers"`
	QuoteTopic string   `mapstructure:"quote_topic"`
	Group      string   `mapstructure:"group"`
	Workers    int      `mapstructure:"workers"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTLHours int    `mapstructure:"ttl_hours"`
	Enabled  bool   `mapstructure:"enabled"`
}

func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

type AliasesConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load reads configuration from path, falling back to defaults when the file
// is absent, with environment overrides applied either way.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SPORTSARB")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if _, err := os.Stat(path); err == nil {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("arbitrage.min_edge_percent", 0.5)
	v.SetDefault("arbitrage.max_data_age_seconds", 600)
	v.SetDefault("arbitrage.reference_bankroll", 100.0)

	v.SetDefault("middles.min_gap_points", 1.0)
	v.SetDefault("middles.min_gap_total", 2.0)
	v.SetDefault("middles.min_gap_prop", 1.0)
	v.SetDefault("middles.spread_std_dev", 13.5)
	v.SetDefault("middles.total_std_dev", 18.0)
	v.SetDefault("middles.prop_std_dev", 5.0)
	v.SetDefault("middles.player_props", true)

	v.SetDefault("lag.lookback_minutes", 120)
	v.SetDefault("lag.min_probability_delta", 0.02)
	v.SetDefault("lag.min_lag_seconds", 5)
	v.SetDefault("lag.max_lag_seconds", 300)

	v.SetDefault("impact.pre_window_minutes", 60)
	v.SetDefault("impact.post_window_minutes", 60)
	v.SetDefault("impact.max_event_age_hours", 72)
	v.SetDefault("impact.min_snapshot_count", 1)
	v.SetDefault("impact.direction_threshold", 0.01)

	v.SetDefault("storage.database", "data/sportsarb.db")

	v.SetDefault("kafka.brokers", []string{"kafka-broker:9092"})
	v.SetDefault("kafka.quote_topic", "quotes.snapshots")
	v.SetDefault("kafka.group", "quote-workers")
	v.SetDefault("kafka.workers", 4)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl_hours", 24)
	v.SetDefault("redis.enabled", false)

	v.SetDefault("aliases.dir", "data/aliases")
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if c.Arbitrage.MinEdgePercent < 0 || c.Arbitrage.MinEdgePercent > 100 {
		return fmt.Errorf("arbitrage.min_edge_percent must be between 0 and 100")
	}
	if c.Arbitrage.MaxDataAgeSeconds < 1 {
		return fmt.Errorf("arbitrage.max_data_age_seconds must be at least 1")
	}
	if c.Arbitrage.ReferenceBankroll <= 0 {
		return fmt.Errorf("arbitrage.reference_bankroll must be positive")
	}
	if c.Middles.MinGapPoints <= 0 || c.Middles.MinGapTotal <= 0 || c.Middles.MinGapProp <= 0 {
		return fmt.Errorf("middles gap thresholds must be positive")
	}
	if c.Middles.SpreadStdDev <= 0 || c.Middles.TotalStdDev <= 0 || c.Middles.PropStdDev <= 0 {
		return fmt.Errorf("middles std deviations must be positive")
	}
	if c.Lag.MinProbabilityDelta <= 0 || c.Lag.MinProbabilityDelta >= 1 {
		return fmt.Errorf("lag.min_probability_delta must be in (0, 1)")
	}
	if c.Lag.MinLagSeconds < 0 {
		return fmt.Errorf("lag.min_lag_seconds must not be negative")
	}
	if c.Lag.MaxLagSeconds <= c.Lag.MinLagSeconds {
		return fmt.Errorf("lag.max_lag_seconds must exceed lag.min_lag_seconds")
	}
	if c.Lag.LookbackMinutes < 1 {
		return fmt.Errorf("lag.lookback_minutes must be at least 1")
	}
	if c.Impact.PreWindowMinutes < 1 || c.Impact.PostWindowMinutes < 1 {
		return fmt.Errorf("impact windows must be at least 1 minute")
	}
	if c.Impact.MinSnapshotCount < 1 {
		return fmt.Errorf("impact.min_snapshot_count must be at least 1")
	}
	if c.Impact.DirectionThreshold <= 0 || c.Impact.DirectionThreshold >= 1 {
		return fmt.Errorf("impact.direction_threshold must be in (0, 1)")
	}
	if c.Storage.Database == "" {
		return fmt.Errorf("storage.database is required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must contain at least one broker")
	}
	if c.Kafka.QuoteTopic == "" {
		return fmt.Errorf("kafka.quote_topic is required")
	}
	if c.Kafka.Workers < 1 {
		return fmt.Errorf("kafka.workers must be at least 1")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	return nil
}
