// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
server:
  http_addr: "0.0.0.0:8080"
  grpc_addr: "0.0.0.0:50051"

database:
  path: "./test.db"

executor:
  mode: "http"
  url: "https://interpreter.internal"
  model: "gpt-4o"
  api_key: "sk-test"
  detailed_error: false

auth:
  session_secret: "`+testSecret+`"
  session_ttl: "24h"

webui:
  max_upload_mb: 8
  dedupe_ttl: "1m"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.Server.GRPCAddr != "0.0.0.0:50051" {
		t.Errorf("Server.GRPCAddr = %q, want %q", cfg.Server.GRPCAddr, "0.0.0.0:50051")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}

	// Verify executor config
	if cfg.Executor.URL != "https://interpreter.internal" {
		t.Errorf("Executor.URL = %q, want %q", cfg.Executor.URL, "https://interpreter.internal")
	}
	if cfg.Executor.Model != "gpt-4o" {
		t.Errorf("Executor.Model = %q, want %q", cfg.Executor.Model, "gpt-4o")
	}
	if cfg.Executor.DetailedErrors() {
		t.Error("Executor.DetailedErrors() = true, want false")
	}

	// Verify duration parsing
	if cfg.Auth.SessionTTL != 24*time.Hour {
		t.Errorf("Auth.SessionTTL = %v, want %v", cfg.Auth.SessionTTL, 24*time.Hour)
	}
	if cfg.WebUI.DedupeTTL != time.Minute {
		t.Errorf("WebUI.DedupeTTL = %v, want %v", cfg.WebUI.DedupeTTL, time.Minute)
	}
	if cfg.WebUI.MaxUploadBytes() != 8<<20 {
		t.Errorf("WebUI.MaxUploadBytes() = %d, want %d", cfg.WebUI.MaxUploadBytes(), 8<<20)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_TOML(t *testing.T) {
	configPath := writeConfig(t, "config.toml", `
[server]
http_addr = "127.0.0.1:9000"

[database]
path = "/tmp/chat.db"

[executor]
mode = "echo"

[auth]
session_secret = "`+testSecret+`"
session_ttl = "2h"

[logging]
level = "warn"
format = "color"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "127.0.0.1:9000" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "127.0.0.1:9000")
	}
	if cfg.Executor.Mode != ExecutorModeEcho {
		t.Errorf("Executor.Mode = %q, want %q", cfg.Executor.Mode, ExecutorModeEcho)
	}
	if cfg.Executor.URL != "" {
		t.Errorf("Executor.URL = %q, want empty in echo mode", cfg.Executor.URL)
	}
	if cfg.Auth.SessionTTL != 2*time.Hour {
		t.Errorf("Auth.SessionTTL = %v, want %v", cfg.Auth.SessionTTL, 2*time.Hour)
	}
	if cfg.Logging.Format != "color" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "color")
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
auth:
  session_secret: "`+testSecret+`"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, DefaultHTTPAddr)
	}
	if cfg.Database.Path != DefaultDatabasePath {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, DefaultDatabasePath)
	}
	if cfg.Executor.Mode != ExecutorModeHTTP {
		t.Errorf("Executor.Mode = %q, want %q", cfg.Executor.Mode, ExecutorModeHTTP)
	}
	if cfg.Executor.URL != DefaultExecutorURL {
		t.Errorf("Executor.URL = %q, want %q", cfg.Executor.URL, DefaultExecutorURL)
	}
	if cfg.Executor.Model != DefaultModel {
		t.Errorf("Executor.Model = %q, want %q", cfg.Executor.Model, DefaultModel)
	}
	if !cfg.Executor.DetailedErrors() {
		t.Error("Executor.DetailedErrors() = false, want true by default")
	}
	if cfg.Auth.SessionTTL != DefaultSessionTTL {
		t.Errorf("Auth.SessionTTL = %v, want %v", cfg.Auth.SessionTTL, DefaultSessionTTL)
	}
	if cfg.WebUI.MaxUploadMB != DefaultMaxUploadMB {
		t.Errorf("WebUI.MaxUploadMB = %d, want %d", cfg.WebUI.MaxUploadMB, DefaultMaxUploadMB)
	}
	if cfg.WebUI.DedupeTTL != DefaultDedupeTTL {
		t.Errorf("WebUI.DedupeTTL = %v, want %v", cfg.WebUI.DedupeTTL, DefaultDedupeTTL)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want info/text", cfg.Logging)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_SESSION_SECRET", testSecret)
	t.Setenv("TEST_API_KEY", "sk-from-env")

	configPath := writeConfig(t, "config.yaml", `
executor:
  api_key: "${TEST_API_KEY}"
auth:
  session_secret: "${TEST_SESSION_SECRET}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.SessionSecret != testSecret {
		t.Errorf("Auth.SessionSecret = %q, want %q", cfg.Auth.SessionSecret, testSecret)
	}
	if cfg.Executor.APIKey != "sk-from-env" {
		t.Errorf("Executor.APIKey = %q, want %q", cfg.Executor.APIKey, "sk-from-env")
	}
}

func TestLoad_EnvVarExpansion_UnsetVar(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
executor:
  api_key: "${UNSET_CODECHAT_TEST_VAR}"
auth:
  session_secret: "`+testSecret+`"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Executor.APIKey != "" {
		t.Errorf("Executor.APIKey = %q, want empty string for unset var", cfg.Executor.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidSyntax(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "yaml", file: "config.yaml", content: "server:\n  http_addr: [unclosed"},
		{name: "toml", file: "config.toml", content: "[server\nhttp_addr = "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), "parsing config file") {
				t.Errorf("Load() error = %q, want parse error", err.Error())
			}
		})
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
auth:
  session_secret: "`+testSecret+`"
  session_ttl: "a week"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid duration, got nil")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{HTTPAddr: "127.0.0.1:8501"},
			Database: DatabaseConfig{Path: "./chat.db"},
			Executor: ExecutorConfig{Mode: ExecutorModeHTTP, URL: "http://127.0.0.1:8000"},
			Auth:     AuthConfig{SessionSecret: testSecret},
			Logging:  LoggingConfig{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name          string
		mutate        func(*Config)
		wantErrSubstr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:          "missing http_addr",
			mutate:        func(c *Config) { c.Server.HTTPAddr = "" },
			wantErrSubstr: "server.http_addr is required",
		},
		{
			name: "tailscale enabled allows empty http_addr",
			mutate: func(c *Config) {
				c.Server.HTTPAddr = ""
				c.Tailscale = TailscaleConfig{Enabled: true, Hostname: "codechat"}
			},
		},
		{
			name:          "tailscale enabled requires hostname",
			mutate:        func(c *Config) { c.Tailscale.Enabled = true },
			wantErrSubstr: "tailscale.hostname is required",
		},
		{
			name:          "missing database path",
			mutate:        func(c *Config) { c.Database.Path = "" },
			wantErrSubstr: "database.path is required",
		},
		{
			name:          "unknown executor mode",
			mutate:        func(c *Config) { c.Executor.Mode = "grpc" },
			wantErrSubstr: "executor.mode",
		},
		{
			name:          "executor url without scheme",
			mutate:        func(c *Config) { c.Executor.URL = "ftp://interpreter" },
			wantErrSubstr: "executor.url must use http or https",
		},
		{
			name:          "short session secret",
			mutate:        func(c *Config) { c.Auth.SessionSecret = "short" },
			wantErrSubstr: "auth.session_secret",
		},
		{
			name:          "password hash not bcrypt",
			mutate:        func(c *Config) { c.Auth.PasswordHash = "hunter2" },
			wantErrSubstr: "auth.password_hash",
		},
		{
			name:          "bad log level",
			mutate:        func(c *Config) { c.Logging.Level = "verbose" },
			wantErrSubstr: "logging.level",
		},
		{
			name:          "bad log format",
			mutate:        func(c *Config) { c.Logging.Format = "xml" },
			wantErrSubstr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErrSubstr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Errorf("Validate() expected error containing %q, got nil", tt.wantErrSubstr)
				return
			}
			if !strings.Contains(err.Error(), tt.wantErrSubstr) {
				t.Errorf("Validate() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FOO", "bar")
	t.Setenv("BAZ", "qux")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single env var", input: "${FOO}", expected: "bar"},
		{name: "env var with surrounding text", input: "prefix-${FOO}-suffix", expected: "prefix-bar-suffix"},
		{name: "multiple env vars", input: "${FOO}/${BAZ}", expected: "bar/qux"},
		{name: "no env vars", input: "no-vars-here", expected: "no-vars-here"},
		{name: "unset env var", input: "${UNSET_VAR}", expected: ""},
		{name: "empty string", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvVars(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	if got := ResolvePath("/from/flag.toml"); got != "/from/flag.toml" {
		t.Errorf("ResolvePath(flag) = %q, want flag value", got)
	}
	if got := ResolvePath(""); got != filepath.Join("/xdg", "codechat", "config.yaml") {
		t.Errorf("ResolvePath(\"\") = %q, want XDG path", got)
	}

	t.Setenv(EnvConfigPath, "/from/env.yaml")
	if got := ResolvePath(""); got != "/from/env.yaml" {
		t.Errorf("ResolvePath(\"\") = %q, want env value", got)
	}
	if got := ResolvePath("/from/flag.toml"); got != "/from/flag.toml" {
		t.Errorf("ResolvePath(flag) = %q, flag should win over env", got)
	}
}

func TestDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DataDir(); got != filepath.Join("/data", "codechat") {
		t.Errorf("DataDir() = %q, want %q", got, filepath.Join("/data", "codechat"))
	}
}
