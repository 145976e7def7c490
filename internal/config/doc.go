// Package config handles configuration loading for codechat.
//
// # Overview
//
// Configuration is loaded from YAML or TOML files with environment variable
// expansion. The package fills in defaults and validates the result.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from the --config flag
//  2. Path from CODECHAT_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/codechat/config.yaml
//  4. ~/.config/codechat/config.yaml
//
// Files ending in .toml are parsed as TOML; everything else as YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  session_secret: "${CODECHAT_SESSION_SECRET}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	auth:
//	  session_ttl: "168h"
//	webui:
//	  dedupe_ttl: "10m"
//
// # Configuration Sections
//
//	server:
//	  http_addr: "127.0.0.1:8501"
//	  grpc_addr: ""                  # optional gRPC health endpoint
//
//	tailscale:
//	  enabled: false
//	  hostname: "codechat"
//	  auth_key: "${TS_AUTHKEY}"
//	  https: true
//
//	database:
//	  path: "./chat.db"
//
//	executor:
//	  mode: "http"                   # http or echo
//	  url: "http://127.0.0.1:8000"
//	  model: "gpt-4"
//	  api_key: "${OPENAI_API_KEY}"
//	  detailed_error: true
//
//	auth:
//	  session_secret: "${CODECHAT_SESSION_SECRET}"   # at least 32 characters
//	  password_hash: ""                              # bcrypt; empty disables the password gate
//	  session_ttl: "168h"
//
//	webui:
//	  max_upload_mb: 32
//	  dedupe_ttl: "10m"
//
//	logging:
//	  level: "info"    # debug, info, warn, error
//	  format: "text"   # text, json, color
//
// # Usage
//
//	cfg, err := config.Load(config.ResolvePath(flagValue))
//	if err != nil {
//	    return err
//	}
package config
