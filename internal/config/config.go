package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/Veraticus/purse/internal/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default locations.
const (
	DefaultDatabasePath = "$HOME/.local/share/purse/purse.db"
	DefaultCertDir      = "$HOME/.local/share/purse/certs"
)

// Config holds the resolved application settings.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	API      APIConfig      `mapstructure:"api"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SessionConfig carries credentials for one-shot commands.
type SessionConfig struct {
	Login    string `mapstructure:"login"`
	Password string `mapstructure:"password"`
}

// LoggingConfig selects the log handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Addr      string        `mapstructure:"addr"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	CertDir   string        `mapstructure:"cert_dir"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	TLS       bool          `mapstructure:"tls"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("api.addr", ":8080")
	v.SetDefault("api.token_ttl", 24*time.Hour)
	v.SetDefault("api.tls", false)
	v.SetDefault("api.cert_dir", DefaultCertDir)

	// Keys without defaults still need registering so AutomaticEnv can fill them on Unmarshal.
	v.SetDefault("session.login", "")
	v.SetDefault("session.password", "")
	v.SetDefault("api.jwt_secret", "")
}

// NewEnvReplacer maps nested keys such as api.jwt_secret to PURSE_API_JWT_SECRET.
func NewEnvReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// LoadDotEnv loads variables from the given .env files into the process
// environment, ignoring files that do not exist.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load unmarshals v into a Config and expands paths.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDatabasePath
	}
	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	if cfg.API.CertDir == "" {
		cfg.API.CertDir = DefaultCertDir
	}
	cfg.API.CertDir = ExpandPath(cfg.API.CertDir)

	if cfg.API.TokenTTL <= 0 {
		return nil, fmt.Errorf("%w: api.token_ttl must be positive", common.ErrInvalidConfig)
	}

	return &cfg, nil
}

// ValidateAPI checks the settings needed to serve the HTTP API.
func (c *Config) ValidateAPI() error {
	if c.API.Addr == "" {
		return fmt.Errorf("%w: api.addr is empty", common.ErrInvalidConfig)
	}
	if len(c.API.JWTSecret) < 16 {
		return fmt.Errorf("%w: api.jwt_secret must be at least 16 characters", common.ErrInvalidConfig)
	}
	return nil
}
