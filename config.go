package campus

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config consolidates settings for the mutation service
type Config struct {
	Database   DatabaseConfig   `json:"database" yaml:"database"`
	Limits     LimitsConfig     `json:"limits" yaml:"limits"`
	Validation ValidationConfig `json:"validation" yaml:"validation"`
	Resilience ResilienceConfig `json:"resilience" yaml:"resilience"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics"`
	Server     ServerConfig     `json:"server" yaml:"server"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	Database        string        `json:"database" yaml:"database"`
	Username        string        `json:"username" yaml:"username"`
	Password        string        `json:"password" yaml:"password"`
	SSLMode         string        `json:"sslMode" yaml:"sslMode"`
	MaxConnections  int           `json:"maxConnections" yaml:"maxConnections"`
	MaxIdleConns    int           `json:"maxIdleConns" yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `json:"connMaxIdleTime" yaml:"connMaxIdleTime"`
	Timeout         time.Duration `json:"timeout" yaml:"timeout"`

	// IAMAuth replaces the static password with a short-lived DSQL token per connection.
	IAMAuth bool   `json:"iamAuth" yaml:"iamAuth"`
	Region  string `json:"region" yaml:"region"`
}

// LimitsConfig bounds the size of mutation batches
type LimitsConfig struct {
	MutationMinInputArraySize int `json:"mutationMinInputArraySize" yaml:"mutationMinInputArraySize"`
	MutationMaxInputArraySize int `json:"mutationMaxInputArraySize" yaml:"mutationMaxInputArraySize"`
	SubItemsMinLength         int `json:"subItemsMinLength" yaml:"subItemsMinLength"`
	SubItemsMaxLength         int `json:"subItemsMaxLength" yaml:"subItemsMaxLength"`
	ShortcodeMaxLength        int `json:"shortcodeMaxLength" yaml:"shortcodeMaxLength"`
}

// ValidationConfig holds numeric domain bounds used by field validators
type ValidationConfig struct {
	AgeRangeLowMin      int `json:"ageRangeLowMin" yaml:"ageRangeLowMin"`
	AgeRangeHighMax     int `json:"ageRangeHighMax" yaml:"ageRangeHighMax"`
	SchoolNameMaxLength int `json:"schoolNameMaxLength" yaml:"schoolNameMaxLength"`
}

// ResilienceConfig tunes the circuit breaker in front of database writes
type ResilienceConfig struct {
	BreakerEnabled      bool          `json:"breakerEnabled" yaml:"breakerEnabled"`
	BreakerThreshold    int           `json:"breakerThreshold" yaml:"breakerThreshold"`
	BreakerWindow       time.Duration `json:"breakerWindow" yaml:"breakerWindow"`
	BreakerOpenDuration time.Duration `json:"breakerOpenDuration" yaml:"breakerOpenDuration"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level    string `json:"level" yaml:"level"`
	Format   string `json:"format" yaml:"format"`
	LogAudit bool   `json:"logAudit" yaml:"logAudit"`
}

// MetricsConfig contains metrics collection settings
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Namespace string `json:"namespace" yaml:"namespace"`
	Path      string `json:"path" yaml:"path"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Port         string        `json:"port" yaml:"port"`
	ReadTimeout  time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	IdleTimeout  time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxConnections:  25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			Timeout:         30 * time.Second,
		},
		Limits: LimitsConfig{
			MutationMinInputArraySize: 1,
			MutationMaxInputArraySize: 50,
			SubItemsMinLength:         1,
			SubItemsMaxLength:         50,
			ShortcodeMaxLength:        10,
		},
		Validation: ValidationConfig{
			AgeRangeLowMin:      0,
			AgeRangeHighMax:     99,
			SchoolNameMaxLength: 120,
		},
		Resilience: ResilienceConfig{
			BreakerEnabled:      true,
			BreakerThreshold:    5,
			BreakerWindow:       30 * time.Second,
			BreakerOpenDuration: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			LogAudit: true,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "campus",
			Path:      "/metrics",
		},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.MaxConnections <= 0 {
		return &ConfigError{Field: "database.maxConnections", Message: "must be greater than 0"}
	}

	if c.Limits.MutationMinInputArraySize < 0 {
		return &ConfigError{Field: "limits.mutationMinInputArraySize", Message: "must not be negative"}
	}

	if c.Limits.MutationMaxInputArraySize < c.Limits.MutationMinInputArraySize {
		return &ConfigError{Field: "limits.mutationMaxInputArraySize", Message: "must be greater than or equal to mutationMinInputArraySize"}
	}

	if c.Limits.SubItemsMaxLength < c.Limits.SubItemsMinLength {
		return &ConfigError{Field: "limits.subItemsMaxLength", Message: "must be greater than or equal to subItemsMinLength"}
	}

	if c.Limits.ShortcodeMaxLength <= 0 {
		return &ConfigError{Field: "limits.shortcodeMaxLength", Message: "must be greater than 0"}
	}

	if c.Validation.AgeRangeHighMax <= c.Validation.AgeRangeLowMin {
		return &ConfigError{Field: "validation.ageRangeHighMax", Message: "must be greater than ageRangeLowMin"}
	}

	if c.Resilience.BreakerEnabled && c.Resilience.BreakerThreshold <= 0 {
		return &ConfigError{Field: "resilience.breakerThreshold", Message: "must be greater than 0"}
	}

	if c.Database.IAMAuth && c.Database.Region == "" {
		return &ConfigError{Field: "database.region", Message: "required when iamAuth is enabled"}
	}

	return nil
}

// LoadConfigFile reads a YAML file over the defaults and validates the result.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
