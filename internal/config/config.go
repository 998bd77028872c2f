// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jason-s-yu/spotdiff/internal/models"
	"gopkg.in/yaml.v3"
)

// Config holds the server settings that are not connection strings.
// Connection strings stay in the environment.
type Config struct {
	Server struct {
		Port           string        `yaml:"port"`
		TickInterval   time.Duration `yaml:"tick_interval"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		LogLevel       string        `yaml:"log_level"`
	} `yaml:"server"`

	Game struct {
		MaxTimer  int              `yaml:"max_timer"`
		Constants models.Constants `yaml:"constants"`
	} `yaml:"game"`

	Broker struct {
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"broker"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.Server.Port = "8080"
	c.Server.TickInterval = time.Second
	c.Server.AllowedOrigins = []string{"*"}
	c.Server.LogLevel = "debug"
	c.Game.MaxTimer = 120
	c.Game.Constants = models.DefaultConstants
	c.Broker.SubjectPrefix = "spotdiff"
	return c
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.LogLevel = getEnv("LOG_LEVEL", c.Server.LogLevel)
	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Server.TickInterval = d
		}
	}
	c.Game.MaxTimer = getEnvAsInt("MAX_TIMER", c.Game.MaxTimer)
	c.Broker.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", c.Broker.SubjectPrefix)
}

// Validate rejects settings the managers cannot run with.
func (c *Config) Validate() error {
	if c.Server.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.Server.TickInterval)
	}
	if c.Game.MaxTimer <= 0 {
		return fmt.Errorf("max_timer must be positive, got %d", c.Game.MaxTimer)
	}
	k := c.Game.Constants
	if k.InitialTime <= 0 || k.PenaltyTime < 0 || k.BonusTime < 0 {
		return fmt.Errorf("invalid default constants %+v", k)
	}
	return nil
}

// Addr is the listen address for net/http.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
