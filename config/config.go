package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// WhatsApp configuration
	WhatsApp WhatsAppConfig `json:"whatsapp" yaml:"whatsapp"`

	// Result history database
	Database DatabaseConfig `json:"database" yaml:"database"`

	// Session snapshot storage
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Simulation tuning
	Game GameConfig `json:"game" yaml:"game"`

	// Server configuration
	Server ServerConfig `json:"server" yaml:"server"`
}

// WhatsAppConfig holds WhatsApp specific configuration
type WhatsAppConfig struct {
	// Disabled by default so the HTTP API can run without a paired phone
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path to store WhatsApp session data
	StoreDir string `json:"store_dir" yaml:"store_dir"`

	// Client device name
	ClientName string `json:"client_name" yaml:"client_name"`

	// Push a message to the player whenever a life event fires
	NotifyEvents bool `json:"notify_events" yaml:"notify_events"`
}

// DatabaseConfig holds the result history database configuration
type DatabaseConfig struct {
	// Database driver (sqlite3 or postgres)
	Driver string `json:"driver" yaml:"driver"`

	// Database connection string
	DSN string `json:"dsn" yaml:"dsn"`
}

// StorageConfig selects where session snapshots are kept
type StorageConfig struct {
	// Backend is "file" or "redis"
	Backend string `json:"backend" yaml:"backend"`

	// Directory for the file backend
	Dir string `json:"dir" yaml:"dir"`

	RedisAddr     string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `json:"redis_password" yaml:"redis_password"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db"`
	KeyPrefix     string `json:"key_prefix" yaml:"key_prefix"`

	// Seconds between snapshot flushes of running sessions
	SaveInterval int `json:"save_interval" yaml:"save_interval"`
}

// GameConfig holds the simulation constants. All durations are game-time milliseconds.
type GameConfig struct {
	DefaultDifficulty string `json:"default_difficulty" yaml:"default_difficulty"`

	// Length of a whole game
	DurationMs int64 `json:"duration_ms" yaml:"duration_ms"`

	// Minimum wall time between two processed ticks
	MinTickIntervalMs int64 `json:"min_tick_interval_ms" yaml:"min_tick_interval_ms"`

	// Cadence of the server loop that drives all sessions
	TickIntervalMs int64 `json:"tick_interval_ms" yaml:"tick_interval_ms"`

	// Event scheduler
	GracePeriodMs      int64   `json:"grace_period_ms" yaml:"grace_period_ms"`
	MinEventIntervalMs int64   `json:"min_event_interval_ms" yaml:"min_event_interval_ms"`
	ExpenseProbability float64 `json:"expense_probability" yaml:"expense_probability"`
	IncomeProbability  float64 `json:"income_probability" yaml:"income_probability"`

	// Share of a monthly return that compounds; the rest is paid out as cash
	ReinvestShare float64 `json:"reinvest_share" yaml:"reinvest_share"`

	// AI opponent
	AIBonusProbability float64   `json:"ai_bonus_probability" yaml:"ai_bonus_probability"`
	AIBonusMultipliers []float64 `json:"ai_bonus_multipliers" yaml:"ai_bonus_multipliers"`
	AIAnnualBonus      float64   `json:"ai_annual_bonus" yaml:"ai_annual_bonus"`
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	// Server port
	Port string `json:"port" yaml:"port"`

	// Log level (debug, info, warn, error)
	LogLevel string `json:"log_level" yaml:"log_level"`

	// Expose /metrics
	Metrics bool `json:"metrics" yaml:"metrics"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		WhatsApp: WhatsAppConfig{
			Enabled:      false,
			StoreDir:     "./whatsapp-store",
			ClientName:   "WEALTH BUILDER",
			NotifyEvents: true,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "./wealth-builder.db",
		},
		Storage: StorageConfig{
			Backend:      "file",
			Dir:          "./data/sessions",
			RedisAddr:    "localhost:6379",
			KeyPrefix:    "wealth:session:",
			SaveInterval: 5,
		},
		Game: GameConfig{
			DefaultDifficulty:  "easy",
			DurationMs:         600000,
			MinTickIntervalMs:  100,
			TickIntervalMs:     250,
			GracePeriodMs:      60000,
			MinEventIntervalMs: 15000,
			ExpenseProbability: 0.008,
			IncomeProbability:  0.01,
			ReinvestShare:      0.7,
			AIBonusProbability: 0.08,
			AIBonusMultipliers: []float64{0.05, 0.08, 0.10, 0.12, 0.15},
			AIAnnualBonus:      0.12,
		},
		Server: ServerConfig{
			Port:     "8080",
			LogLevel: "info",
			Metrics:  true,
		},
	}
}

// TickInterval is the server loop cadence as a duration
func (g GameConfig) TickInterval() time.Duration {
	return time.Duration(g.TickIntervalMs) * time.Millisecond
}

// Validate rejects settings the simulation cannot run with
func (c Config) Validate() error {
	g := c.Game
	if g.DurationMs <= 0 {
		return fmt.Errorf("game.duration_ms must be positive")
	}
	if g.MinTickIntervalMs < 0 || g.TickIntervalMs <= 0 {
		return fmt.Errorf("game tick intervals must be positive")
	}
	if g.ExpenseProbability < 0 || g.IncomeProbability < 0 || g.ExpenseProbability+g.IncomeProbability > 1 {
		return fmt.Errorf("event probabilities must be in [0,1] and sum to at most 1")
	}
	if g.ReinvestShare < 0 || g.ReinvestShare > 1 {
		return fmt.Errorf("game.reinvest_share must be in [0,1]")
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres", "":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Storage.Backend {
	case "file", "redis", "":
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Encode renders the config as YAML when path has a YAML extension and as
// indented JSON otherwise
func Encode(config Config, path string) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(config)
	}
	return json.MarshalIndent(config, "", "  ")
}

// LoadConfig loads configuration from a JSON or YAML file, writing the defaults
// there first if the file does not exist
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveConfig(config, path); err != nil {
			return config, err
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return config, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, config.Validate()
}

// SaveConfig saves configuration to a file
func SaveConfig(config Config, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := Encode(config, path)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
