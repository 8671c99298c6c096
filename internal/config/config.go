// Package config loads server configuration from flags, environment variables and a .env file.
package config

import (
	"bufio"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Data   DataConfig
	Server ServerConfig
	Auth   AuthConfig
	Media  MediaConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `env:"ENV" envDefault:"development"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// DataConfig locates everything the server writes to disk.
type DataConfig struct {
	// BasePath holds the database, the token key, the search index and media.
	BasePath string `env:"DATA_PATH"`
}

// DatabasePath is the SQLite file.
func (d DataConfig) DatabasePath() string { return filepath.Join(d.BasePath, "recipebook.db") }

// SearchPath is the bleve index directory.
func (d DataConfig) SearchPath() string { return filepath.Join(d.BasePath, "search") }

// MediaPath is the root of uploaded media.
func (d DataConfig) MediaPath() string { return filepath.Join(d.BasePath, "media") }

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	CORSOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// TokenTTL bounds token lifetime. Zero keeps a token valid until it is
	// replaced by a new login or revoked.
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"0s"`
	// TokenKey is a hex encoded 32-byte key. When empty, a key is kept in
	// the data directory.
	TokenKey string `env:"TOKEN_KEY"`
}

// MediaConfig holds upload limits.
type MediaConfig struct {
	MaxUploadBytes int64 `env:"MEDIA_MAX_UPLOAD_BYTES" envDefault:"10485760"`
}

var (
	validEnvs   = []string{"development", "staging", "production"}
	validLevels = []string{"debug", "info", "warn", "error"}
)

// Load builds the configuration with precedence, highest first:
// command-line flags, environment variables, the .env file, defaults.
// args excludes the program name.
func Load(args []string) (*Config, error) {
	cfg, _, err := LoadArgs(args)
	return cfg, err
}

// LoadArgs is Load for command-line tools: it also returns the arguments left
// after the first non-flag argument, such as a subcommand and its flags.
func LoadArgs(args []string) (*Config, []string, error) {
	fs := flag.NewFlagSet("recipebook", flag.ContinueOnError)
	var (
		envName   = fs.String("env", "", "Environment (development, staging, production)")
		logLevel  = fs.String("log-level", "", "Log level (debug, info, warn, error)")
		dataPath  = fs.String("data-path", "", "Directory for the database, keys, index and media")
		port      = fs.String("port", "", "Server port (default: 8080)")
		tokenTTL  = fs.String("token-ttl", "", "Access token lifetime, 0 for no expiry")
		envFile   = fs.String("env-file", ".env", "Path to .env file")
		corsAllow = fs.String("cors-origins", "", "Comma separated allowed CORS origins")
	)
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("parse flags: %w", err)
	}

	// A missing .env file is fine.
	if err := loadEnvFile(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, nil, fmt.Errorf("parse env: %w", err)
	}

	override(&cfg.App.Environment, *envName)
	override(&cfg.Logger.Level, *logLevel)
	override(&cfg.Data.BasePath, *dataPath)
	override(&cfg.Server.Port, *port)
	if *corsAllow != "" {
		cfg.Server.CORSOrigins = strings.Split(*corsAllow, ",")
	}
	if *tokenTTL != "" {
		ttl, err := time.ParseDuration(*tokenTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid token ttl %q: %w", *tokenTTL, err)
		}
		cfg.Auth.TokenTTL = ttl
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, nil, fmt.Errorf("invalid data path: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, fs.Args(), nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if !contains(validEnvs, c.App.Environment) {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}
	if !contains(validLevels, strings.ToLower(c.Logger.Level)) {
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}
	if c.Data.BasePath == "" {
		return errors.New("data path cannot be empty after expansion")
	}
	if c.Server.Port == "" {
		return errors.New("server port cannot be empty")
	}
	if c.Auth.TokenTTL < 0 {
		return errors.New("token ttl cannot be negative")
	}
	if c.Auth.TokenKey != "" {
		if key, err := hex.DecodeString(c.Auth.TokenKey); err != nil || len(key) != 32 {
			return errors.New("token key must be 64 hex characters")
		}
	}
	if c.Media.MaxUploadBytes <= 0 {
		return errors.New("media max upload bytes must be positive")
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("get home directory: %w", err)
	}
	expanded, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, "Recipebook"))
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// An empty path yields defaultPath.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("get absolute path: %w", err)
		}
		path = abs
	}
	return filepath.Clean(path), nil
}

func override(dst *string, flagValue string) {
	if flagValue != "" {
		*dst = flagValue
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// loadEnvFile loads KEY=value lines into the process environment.
// Variables already set win over the file.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- config file path is operator input
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("set env var %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}
