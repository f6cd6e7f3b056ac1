package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	DBPath         string       `yaml:"db_path,omitempty"`
	Timezone       string       `yaml:"timezone,omitempty"`        // IANA name (fallback: Asia/Seoul)
	ThresholdDelay string       `yaml:"threshold_delay,omitempty"` // Announced delay before a threshold change applies (fallback: 10m)
	Server         ServerConfig `yaml:"server,omitempty"`
	MQTT           MQTTConfig   `yaml:"mqtt,omitempty"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr         string `yaml:"addr,omitempty"`          // e.g., ":8080"
	TickInterval string `yaml:"tick_interval,omitempty"` // Reservation check interval (fallback: 15s)
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"` // e.g., "localhost:1883"
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // fallback: "powerguard"
}

// Load reads the config file and applies environment overrides.
// A .env file in the working directory is loaded first if present.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := readFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func readFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("POWERGUARD_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("POWERGUARD_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("POWERGUARD_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("POWERGUARD_MQTT_BROKER"); v != "" {
		c.MQTT.Broker = v
	}
	if v := os.Getenv("POWERGUARD_MQTT_USERNAME"); v != "" {
		c.MQTT.Username = v
	}
	if v := os.Getenv("POWERGUARD_MQTT_PASSWORD"); v != "" {
		c.MQTT.Password = v
	}
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// GetDBPath returns the database path with a default of ./powerguard.db
func (c *Config) GetDBPath() string {
	if c.DBPath == "" {
		return "powerguard.db"
	}
	return c.DBPath
}

// GetLocation resolves the configured timezone, falling back to Asia/Seoul
// and then to UTC when the zone database is unavailable
func (c *Config) GetLocation() *time.Location {
	name := c.Timezone
	if name == "" {
		name = "Asia/Seoul"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetThresholdDelay returns the announced threshold activation delay
func (c *Config) GetThresholdDelay() time.Duration {
	return parseDurationOr(c.ThresholdDelay, 10*time.Minute)
}

// GetAddr returns the HTTP listen address
func (c *Config) GetAddr() string {
	if c.Server.Addr == "" {
		return ":8080"
	}
	return c.Server.Addr
}

// GetTickInterval returns how often due reservations are evaluated
func (c *Config) GetTickInterval() time.Duration {
	return parseDurationOr(c.Server.TickInterval, 15*time.Second)
}

// GetTopicPrefix returns the MQTT topic prefix
func (c *Config) GetTopicPrefix() string {
	if c.MQTT.TopicPrefix == "" {
		return "powerguard"
	}
	return c.MQTT.TopicPrefix
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
