// Package config defines all configuration for the exchange server.
// Config is loaded from a YAML file (default: configs/config.yaml) with
// fields overridable via PANTRY_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the HTTP/WebSocket listener.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GameConfig holds the immutable game parameters, snapshotted at session
// creation. Products, scrap values, and the set recipe share one key set.
//
//   - SetValue: endgame worth of one complete recipe bundle. Must exceed the
//     recipe's summed scrap value or there is no arbitrage to trade on.
//   - StartingInventoryTargetValue / Randomization: each player's starting
//     inventory is generated to a scrap value in target*(1 ± randomization).
//   - ShowOrderNames: whether book depth reveals which player owns each order.
//   - Seed: starting-inventory RNG seed; 0 picks a random seed at startup.
type GameConfig struct {
	DurationSeconds                int              `mapstructure:"game_duration_seconds"`
	StartingCash                   int64            `mapstructure:"starting_cash"`
	MaxPlayers                     int              `mapstructure:"max_players"`
	Products                       []string         `mapstructure:"products"`
	ScrapValues                    map[string]int64 `mapstructure:"scrap_values"`
	SetValue                       int64            `mapstructure:"set_value"`
	SetRecipe                      map[string]int64 `mapstructure:"set_recipe"`
	StartingInventoryTargetValue   int64            `mapstructure:"starting_inventory_target_total_value"`
	StartingInventoryRandomization float64          `mapstructure:"starting_inventory_randomization_factor"`
	MinOrderSize                   int64            `mapstructure:"min_order_size"`
	MaxOrderSize                   int64            `mapstructure:"max_order_size"`
	ShowOrderNames                 bool             `mapstructure:"show_order_names"`
	Seed                           uint64           `mapstructure:"seed"`
}

// StoreConfig sets where the append-only record log is written and,
// optionally, a remote collector to ship records to.
type StoreConfig struct {
	DataDir   string `mapstructure:"data_dir"`
	RemoteURL string `mapstructure:"remote_url"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config from a YAML file with PANTRY_* env var overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("PANTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	g := &c.Game
	if g.DurationSeconds <= 0 {
		return fmt.Errorf("game.game_duration_seconds must be > 0")
	}
	if g.StartingCash < 0 {
		return fmt.Errorf("game.starting_cash must be >= 0")
	}
	if g.MaxPlayers < 2 {
		return fmt.Errorf("game.max_players must be >= 2")
	}
	if len(g.Products) == 0 {
		return fmt.Errorf("game.products must not be empty")
	}
	seen := make(map[string]bool, len(g.Products))
	for _, p := range g.Products {
		if seen[p] {
			return fmt.Errorf("game.products contains %q twice", p)
		}
		seen[p] = true
		if g.ScrapValues[p] <= 0 {
			return fmt.Errorf("game.scrap_values[%s] must be a positive integer", p)
		}
		if g.SetRecipe[p] <= 0 {
			return fmt.Errorf("game.set_recipe[%s] must be a positive integer", p)
		}
	}
	if len(g.ScrapValues) != len(g.Products) {
		return fmt.Errorf("game.scrap_values must have exactly the product keys")
	}
	if len(g.SetRecipe) != len(g.Products) {
		return fmt.Errorf("game.set_recipe must have exactly the product keys")
	}
	if g.SetValue <= 0 {
		return fmt.Errorf("game.set_value must be > 0")
	}
	if g.StartingInventoryTargetValue <= 0 {
		return fmt.Errorf("game.starting_inventory_target_total_value must be > 0")
	}
	if g.StartingInventoryRandomization < 0 || g.StartingInventoryRandomization >= 1 {
		return fmt.Errorf("game.starting_inventory_randomization_factor must be in [0, 1)")
	}
	if g.MinOrderSize <= 0 || g.MaxOrderSize <= 0 {
		return fmt.Errorf("game.min_order_size and game.max_order_size must be > 0")
	}
	if g.MinOrderSize > g.MaxOrderSize {
		return fmt.Errorf("game.min_order_size must be <= game.max_order_size")
	}
	// Order values are qty*price products; bounding qty alongside the engine's
	// price ceiling keeps them inside int64.
	if g.MaxOrderSize > 1_000_000 {
		return fmt.Errorf("game.max_order_size must be <= 1000000")
	}
	if c.Store.DataDir == "" {
		return fmt.Errorf("store.data_dir is required")
	}
	return nil
}
