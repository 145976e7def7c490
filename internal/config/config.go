// ABOUTME: Configuration loading and parsing for codechat
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Defaults applied to fields left empty in the config file
const (
	DefaultHTTPAddr     = "127.0.0.1:8501"
	DefaultDatabasePath = "./chat.db"
	DefaultExecutorURL  = "http://127.0.0.1:8000"
	DefaultModel        = "gpt-4"
	DefaultSessionTTL   = 7 * 24 * time.Hour
	DefaultMaxUploadMB  = 32
	DefaultDedupeTTL    = 10 * time.Minute
)

// MinSessionSecretLen is the shortest accepted auth.session_secret
const MinSessionSecretLen = 32

// Executor modes
const (
	ExecutorModeHTTP = "http"
	ExecutorModeEcho = "echo"
)

// Config represents the complete codechat configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale" toml:"tailscale"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Executor  ExecutorConfig  `yaml:"executor" toml:"executor"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	WebUI     WebUIConfig     `yaml:"webui" toml:"webui"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr" toml:"grpc_addr"` // optional gRPC health endpoint
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Hostname  string `yaml:"hostname" toml:"hostname"`
	AuthKey   string `yaml:"auth_key" toml:"auth_key"`
	StateDir  string `yaml:"state_dir" toml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral"`
	HTTPS     bool   `yaml:"https" toml:"https"` // serve :443 with tailscale-issued certs
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// ExecutorConfig selects and configures the code-execution backend
type ExecutorConfig struct {
	Mode          string `yaml:"mode" toml:"mode"`
	URL           string `yaml:"url" toml:"url"`
	Model         string `yaml:"model" toml:"model"`
	APIKey        string `yaml:"api_key" toml:"api_key"`
	DetailedError *bool  `yaml:"detailed_error" toml:"detailed_error"`
}

// DetailedErrors reports whether the executor should return tracebacks (default true)
func (e ExecutorConfig) DetailedErrors() bool {
	return e.DetailedError == nil || *e.DetailedError
}

// AuthConfig holds browser session and password configuration
type AuthConfig struct {
	SessionSecret string        `yaml:"session_secret" toml:"session_secret"`
	PasswordHash  string        `yaml:"password_hash" toml:"password_hash"`
	SessionTTL    time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	SessionTTLRaw string `yaml:"session_ttl" toml:"session_ttl"`
}

// WebUIConfig holds web UI limits
type WebUIConfig struct {
	MaxUploadMB int           `yaml:"max_upload_mb" toml:"max_upload_mb"`
	DedupeTTL   time.Duration `yaml:"-" toml:"-"`

	DedupeTTLRaw string `yaml:"dedupe_ttl" toml:"dedupe_ttl"`
}

// MaxUploadBytes returns the upload limit in bytes
func (w WebUIConfig) MaxUploadBytes() int64 {
	return int64(w.MaxUploadMB) << 20
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // json, text or color
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are parsed as TOML; anything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data, formatFor(path))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Format is a config file syntax
type Format string

// Supported config formats
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes config bytes in the given format, then applies defaults and validates
func Parse(data []byte, format Format) (*Config, error) {
	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	var cfg Config
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// envVarPattern matches ${VAR_NAME}
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in fields the file left empty
func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" && !c.Tailscale.Enabled {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Executor.Mode == "" {
		c.Executor.Mode = ExecutorModeHTTP
	}
	if c.Executor.URL == "" && c.Executor.Mode == ExecutorModeHTTP {
		c.Executor.URL = DefaultExecutorURL
	}
	if c.Executor.Model == "" {
		c.Executor.Model = DefaultModel
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = DefaultSessionTTL
	}
	if c.WebUI.MaxUploadMB == 0 {
		c.WebUI.MaxUploadMB = DefaultMaxUploadMB
	}
	if c.WebUI.DedupeTTL == 0 {
		c.WebUI.DedupeTTL = DefaultDedupeTTL
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	// An HTTP address is required unless Tailscale is enabled
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}

	// Tailscale requires a hostname
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Executor.Mode {
	case ExecutorModeEcho:
	case ExecutorModeHTTP:
		u, err := url.Parse(c.Executor.URL)
		if err != nil {
			return fmt.Errorf("executor.url is not a valid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("executor.url must use http or https scheme")
		}
	default:
		return fmt.Errorf("executor.mode must be %q or %q, got %q", ExecutorModeHTTP, ExecutorModeEcho, c.Executor.Mode)
	}

	if len(c.Auth.SessionSecret) < MinSessionSecretLen {
		return fmt.Errorf("auth.session_secret must be at least %d characters", MinSessionSecretLen)
	}
	if c.Auth.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(c.Auth.PasswordHash)); err != nil {
			return fmt.Errorf("auth.password_hash is not a bcrypt hash: %w", err)
		}
	}
	if c.Auth.SessionTTL < 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}

	if c.WebUI.MaxUploadMB < 0 {
		return fmt.Errorf("webui.max_upload_mb must be positive")
	}
	if c.WebUI.DedupeTTL < 0 {
		return fmt.Errorf("webui.dedupe_ttl must be positive")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text", "color":
	default:
		return fmt.Errorf("logging.format must be json, text or color, got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Auth.SessionTTLRaw != "" {
		cfg.Auth.SessionTTL, err = time.ParseDuration(cfg.Auth.SessionTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing session_ttl %q: %w", cfg.Auth.SessionTTLRaw, err)
		}
	}

	if cfg.WebUI.DedupeTTLRaw != "" {
		cfg.WebUI.DedupeTTL, err = time.ParseDuration(cfg.WebUI.DedupeTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing dedupe_ttl %q: %w", cfg.WebUI.DedupeTTLRaw, err)
		}
	}

	return nil
}
