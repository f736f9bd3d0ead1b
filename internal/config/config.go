package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. VHUB_POSTGRES_DSN
const EnvPrefix = "VHUB"

const configFileName = "volunteer_hub.yaml"

// PostgresConfig configures the relational backend. It is disabled when DSN is empty.
type PostgresConfig struct {
	DSN            string        `yaml:"dsn" split_words:"true"`
	MinConns       int32         `yaml:"minConns" split_words:"true" validate:"min=0"`
	MaxConns       int32         `yaml:"maxConns" split_words:"true" validate:"min=0"`
	ConnectTimeout time.Duration `yaml:"connectTimeout" split_words:"true" validate:"min=0"`
}

// Enabled reports whether the backend is configured
func (c PostgresConfig) Enabled() bool {
	return c.DSN != ""
}

// MongoConfig configures the document backend. It is disabled when URI is empty.
type MongoConfig struct {
	URI         string        `yaml:"uri" split_words:"true"`
	Database    string        `yaml:"database" split_words:"true" validate:"required_with=URI"`
	Timeout     time.Duration `yaml:"timeout" split_words:"true" validate:"min=0"`
	MaxPoolSize uint64        `yaml:"maxPoolSize" split_words:"true"`
}

// Enabled reports whether the backend is configured
func (c MongoConfig) Enabled() bool {
	return c.URI != ""
}

// AuthConfig configures session tokens
type AuthConfig struct {
	JWTSecret    string        `yaml:"jwtSecret" split_words:"true" validate:"required,min=32"`
	TokenTTL     time.Duration `yaml:"tokenTTL" split_words:"true"`
	CookieSecure bool          `yaml:"cookieSecure" split_words:"true"`
}

// HTTPConfig configures the API server
type HTTPConfig struct {
	ListenAddr      string        `yaml:"listenAddr" split_words:"true"`
	RequestTimeout  time.Duration `yaml:"requestTimeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" split_words:"true"`
	LoginPerMinute  int           `yaml:"loginPerMinute" split_words:"true" validate:"min=0"`
	LoginBurst      int           `yaml:"loginBurst" split_words:"true" validate:"min=0"`
	// TrustedProxies lists the reverse proxies (IPs or CIDRs) allowed to set X-Forwarded-For
	TrustedProxies []string `yaml:"trustedProxies" split_words:"true" validate:"dive,cidr|ip"`
}

// Config represents the application configuration
type Config struct {
	DefaultBackend string         `yaml:"defaultBackend" split_words:"true" validate:"required,oneof=postgres mongodb"`
	Postgres       PostgresConfig `yaml:"postgres" envconfig:"POSTGRES"`
	MongoDB        MongoConfig    `yaml:"mongodb" envconfig:"MONGODB"`
	Auth           AuthConfig     `yaml:"auth" envconfig:"AUTH"`
	HTTP           HTTPConfig     `yaml:"http" envconfig:"HTTP"`
	LogDir         string         `yaml:"logDir" split_words:"true"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads the configuration from volunteer_hub.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads <env>_volunteer_hub.yaml, or volunteer_hub.yaml when env is empty
func LoadWithEnv(env string) (*Config, error) {
	name := configFileName
	if env != "" {
		name = env + "_" + configFileName
	}

	configPath, err := findConfigFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads the configuration from a specific path, applies
// environment overrides and defaults, and validates the result
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	cfg.applyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = ":8080"
	}
	if c.HTTP.RequestTimeout == 0 {
		c.HTTP.RequestTimeout = 30 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.HTTP.LoginPerMinute == 0 {
		c.HTTP.LoginPerMinute = 10
	}
	if c.HTTP.LoginBurst == 0 {
		c.HTTP.LoginBurst = 5
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 7 * 24 * time.Hour
	}
	if c.MongoDB.Timeout == 0 {
		c.MongoDB.Timeout = 10 * time.Second
	}
	if c.LogDir == "" {
		c.LogDir = "logs"
	}
}

// Validate validates the configuration struct and checks that the default
// backend is one of the configured ones
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if !cfg.Postgres.Enabled() && !cfg.MongoDB.Enabled() {
		return errors.New("config validation failed: no database backend configured")
	}
	switch cfg.DefaultBackend {
	case "postgres":
		if !cfg.Postgres.Enabled() {
			return errors.New("config validation failed: defaultBackend postgres has no dsn")
		}
	case "mongodb":
		if !cfg.MongoDB.Enabled() {
			return errors.New("config validation failed: defaultBackend mongodb has no uri")
		}
	}

	if cfg.Postgres.MaxConns > 0 && cfg.Postgres.MinConns > cfg.Postgres.MaxConns {
		return fmt.Errorf("config validation failed: postgres minConns %d exceeds maxConns %d",
			cfg.Postgres.MinConns, cfg.Postgres.MaxConns)
	}

	return nil
}

// findConfigFile searches for the named file in the current directory and home directory
func findConfigFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
