// Package config loads the settings shared by the simulator and the web demo.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. HEGEMONY_LOGGING_LEVEL.
const EnvPrefix = "HEGEMONY"

// Config is the root configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Game    GameConfig    `mapstructure:"game"`
	Replay  ReplayConfig  `mapstructure:"replay"`
	Server  ServerConfig  `mapstructure:"server"`
	// Script is a YAML input script replayed before automatic play takes over.
	Script string `mapstructure:"script"`
}

// LoggingConfig selects the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PlayerConfig seats a player.
type PlayerConfig struct {
	Name string `mapstructure:"name"`
	Role string `mapstructure:"role"`
}

// GameConfig configures the engine.
type GameConfig struct {
	Debug   bool           `mapstructure:"debug"`
	Seed    uint64         `mapstructure:"seed"`
	Players []PlayerConfig `mapstructure:"players"`
	// DecksDir overrides the embedded card data.
	DecksDir string `mapstructure:"decks_dir"`
}

// ReplayConfig controls replay recording.
type ReplayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

// ServerConfig configures the web demo listener.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	InputTimeout time.Duration `mapstructure:"input_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("game.debug", false)
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.players", []map[string]any{
		{"name": "Alice", "role": "workingClass"},
		{"name": "Bob", "role": "middleClass"},
		{"name": "Carol", "role": "capitalist"},
		{"name": "Dave", "role": "state"},
	})
	v.SetDefault("game.decks_dir", "")
	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.directory", "replays")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.input_timeout", 5*time.Minute)
	v.SetDefault("script", "")
}

// Load reads the YAML file at path. An empty path or a missing file yields
// the defaults; environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !isMissingFile(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the engine would otherwise reject late.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if len(c.Game.Players) == 0 {
		return errors.New("game.players must seat at least one player")
	}
	for i, p := range c.Game.Players {
		if p.Role == "" {
			return fmt.Errorf("game.players[%d] has no role", i)
		}
	}
	if c.Replay.Enabled && c.Replay.Directory == "" {
		return errors.New("replay.directory is required when replays are enabled")
	}
	return nil
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
