package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// PathEnv names the environment variable holding the config file path.
const PathEnv = "TICKARENA_CONFIG"

// DefaultPath is used when PathEnv is unset.
const DefaultPath = "config/server.toml"

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Network NetworkConfig `toml:"network"`
	Game    GameConfig    `toml:"game"`
	Combat  CombatConfig  `toml:"combat"`
	Logging LoggingConfig `toml:"logging"`
	Metrics MetricsConfig `toml:"metrics"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	StaticDir string `toml:"static_dir"` // served at "/", empty disables
}

type NetworkConfig struct {
	BindAddress       string        `toml:"bind_address"`
	InQueueSize       int           `toml:"in_queue_size"`
	OutQueueSize      int           `toml:"out_queue_size"`
	MaxPacketsPerTick int           `toml:"max_packets_per_tick"`
	WriteTimeout      time.Duration `toml:"write_timeout"`
	ReadLimit         int64         `toml:"read_limit"`
	NetworkHz         float64       `toml:"network_hz"`
	Heartbeat         time.Duration `toml:"heartbeat"`
}

type GameConfig struct {
	PhysicsHz       float64       `toml:"physics_hz"`
	LogicHz         float64       `toml:"logic_hz"`
	MovementSpeed   float64       `toml:"movement_speed"`
	MaxHealth       int           `toml:"max_health"`
	RespawnDelay    time.Duration `toml:"respawn_delay"`
	MaxPlayers      int           `toml:"max_players"`
	ArenaHalfExtent float64       `toml:"arena_half_extent"` // 0 disables clamping
	Seed            int64         `toml:"seed"`              // 0 seeds from the clock
}

type CombatConfig struct {
	AttackTable string `toml:"attack_table"` // yaml file, empty uses the built-in table
	ScriptsDir  string `toml:"scripts_dir"`  // lua overrides, empty uses the built-in script
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// envOverrides are applied after the file is decoded.
type envOverrides struct {
	Port     string `envconfig:"PORT"`
	LogLevel string `envconfig:"LOG_LEVEL"`
}

// Load reads the toml file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PathFromEnv returns the config path from PathEnv or DefaultPath.
func PathFromEnv() string {
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return DefaultPath
}

func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}
	if env.Port != "" {
		port, err := strconv.Atoi(env.Port)
		if err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("env overrides: invalid PORT %q", env.Port)
		}
		cfg.Network.BindAddress = fmt.Sprintf("0.0.0.0:%d", port)
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}
	return nil
}

// Validate rejects settings the game loop cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Game.PhysicsHz <= 0 || c.Game.LogicHz <= 0 || c.Network.NetworkHz <= 0:
		return errors.New("config: tick rates must be positive")
	case c.Network.Heartbeat <= 0:
		return errors.New("config: heartbeat must be positive")
	case c.Game.MaxPlayers < 1 || c.Game.MaxPlayers > 255:
		return fmt.Errorf("config: max_players %d out of range [1, 255]", c.Game.MaxPlayers)
	case c.Game.MaxHealth < 1:
		return errors.New("config: max_health must be positive")
	case c.Network.InQueueSize < 1 || c.Network.OutQueueSize < 1:
		return errors.New("config: queue sizes must be positive")
	case c.Network.MaxPacketsPerTick < 1:
		return errors.New("config: max_packets_per_tick must be positive")
	case c.Network.WriteTimeout <= 0:
		return errors.New("config: write_timeout must be positive")
	case c.Game.RespawnDelay < 0:
		return errors.New("config: respawn_delay must not be negative")
	}
	return nil
}

// Interval converts a tick rate in Hz to a ticker period.
func Interval(hz float64) time.Duration {
	return time.Duration(float64(time.Second) / hz)
}

// Defaults returns the compiled-in configuration.
func Defaults() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:      "tickarena",
			StaticDir: "public",
		},
		Network: NetworkConfig{
			BindAddress:       "0.0.0.0:3000",
			InQueueSize:       128,
			OutQueueSize:      256,
			MaxPacketsPerTick: 32,
			WriteTimeout:      10 * time.Second,
			ReadLimit:         4096,
			NetworkHz:         20,
			Heartbeat:         30 * time.Second,
		},
		Game: GameConfig{
			PhysicsHz:     60,
			LogicHz:       60,
			MovementSpeed: 3,
			MaxHealth:     100,
			RespawnDelay:  5 * time.Second,
			MaxPlayers:    255,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
