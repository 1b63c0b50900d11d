// Package config loads the duel server configuration from a YAML file with
// AEN_ environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. AEN_LOGGING_LEVEL.
const EnvPrefix = "AEN"

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Match   MatchConfig   `mapstructure:"match"`
	Storage StorageConfig `mapstructure:"storage"`
	Replay  ReplayConfig  `mapstructure:"replay"`
	Decks   DecksConfig   `mapstructure:"decks"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	// Tick is how far the websocket hub advances each match's clock per
	// wall-clock tick.
	Tick time.Duration `mapstructure:"tick"`
}

// GRPCConfig configures the health endpoint.
type GRPCConfig struct {
	Address              string `mapstructure:"address"`
	MaxConcurrentStreams int    `mapstructure:"max_concurrent_streams"`
}

// WebSocketConfig configures the presentation bridge.
type WebSocketConfig struct {
	Address        string        `mapstructure:"address"`
	Path           string        `mapstructure:"path"`
	ReadBufferSize int           `mapstructure:"read_buffer_size"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MatchConfig holds duel rules settings.
type MatchConfig struct {
	HandSize         int          `mapstructure:"hand_size"`
	BonusDrawFaction string       `mapstructure:"bonus_draw_faction"`
	Seed             int64        `mapstructure:"seed"`
	PlayerLeader     string       `mapstructure:"player_leader"`
	OpponentLeader   string       `mapstructure:"opponent_leader"`
	OpponentPreset   string       `mapstructure:"opponent_preset"`
	Delays           DelaysConfig `mapstructure:"delays"`
}

// DelaysConfig holds the virtual-clock windows.
type DelaysConfig struct {
	AIThink    time.Duration `mapstructure:"ai_think"`
	Scorch     time.Duration `mapstructure:"scorch"`
	MedicChain time.Duration `mapstructure:"medic_chain"`
	RoundEnd   time.Duration `mapstructure:"round_end"`
}

// StorageConfig selects the saved-deck store.
type StorageConfig struct {
	Driver  string `mapstructure:"driver"` // file or postgres
	Path    string `mapstructure:"path"`
	DSN     string `mapstructure:"dsn"`
	DeckKey string `mapstructure:"deck_key"`
}

// ReplayConfig controls replay recording.
type ReplayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

// DecksConfig points at the YAML deck presets.
type DecksConfig struct {
	Presets string `mapstructure:"presets"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc.address", ":50051")
	v.SetDefault("server.grpc.max_concurrent_streams", 100)
	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.path", "/ws")
	v.SetDefault("server.websocket.read_buffer_size", 4096)
	v.SetDefault("server.websocket.write_timeout", 10*time.Second)
	v.SetDefault("server.websocket.allowed_origins", []string{})
	v.SetDefault("server.tick", 100*time.Millisecond)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("match.hand_size", 10)
	v.SetDefault("match.bonus_draw_faction", "alfredolandia")
	v.SetDefault("match.seed", 0)
	v.SetDefault("match.player_leader", "leader_general")
	v.SetDefault("match.opponent_leader", "")
	v.SetDefault("match.opponent_preset", "")
	v.SetDefault("match.delays.ai_think", 1500*time.Millisecond)
	v.SetDefault("match.delays.scorch", 800*time.Millisecond)
	v.SetDefault("match.delays.medic_chain", 300*time.Millisecond)
	v.SetDefault("match.delays.round_end", 500*time.Millisecond)

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", "data/decks.json")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.deck_key", "kingdomOfAen_playerDeck")

	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.directory", "data/replays")

	v.SetDefault("decks.presets", "")
}

// Load reads path (when it exists) over the defaults and applies
// environment overrides. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
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

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Match.HandSize <= 0 {
		problems = append(problems, "match.hand_size must be positive")
	}
	if c.Server.Tick <= 0 {
		problems = append(problems, "server.tick must be positive")
	}
	switch c.Storage.Driver {
	case "file":
		if c.Storage.Path == "" {
			problems = append(problems, "storage.path is required for the file driver")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			problems = append(problems, "storage.dsn is required for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage.driver %q", c.Storage.Driver))
	}
	delays := []struct {
		name string
		d    time.Duration
	}{
		{"ai_think", c.Match.Delays.AIThink},
		{"scorch", c.Match.Delays.Scorch},
		{"medic_chain", c.Match.Delays.MedicChain},
		{"round_end", c.Match.Delays.RoundEnd},
	}
	for _, delay := range delays {
		if delay.d < 0 {
			problems = append(problems, fmt.Sprintf("match.delays.%s must not be negative", delay.name))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
