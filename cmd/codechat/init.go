// ABOUTME: The init command writes a new config file from interactive answers
// ABOUTME: Generates the session secret and bcrypt-hashes an optional UI password

package main

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389/codechat/internal/auth"
	"github.com/2389/codechat/internal/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new config file interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// initAnswers collects everything runInit asks for
type initAnswers struct {
	HTTPAddr      string
	DatabasePath  string
	ExecutorMode  string
	ExecutorURL   string
	Model         string
	SessionSecret string
	PasswordHash  string
	Tailscale     bool
	TSHostname    string
	TSHTTPS       bool
	LogLevel      string
	LogFormat     string
}

func runInit(in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "codechat configuration setup")
	fmt.Fprintln(out, "============================")
	fmt.Fprintln(out)

	outputFile := prompt(reader, out, "Config file path", config.ResolvePath(configFlag))
	if _, err := os.Stat(outputFile); err == nil {
		if !isYes(prompt(reader, out, "File exists. Overwrite?", "no")) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	var a initAnswers

	fmt.Fprintln(out, "\n--- Server Configuration ---")
	a.HTTPAddr = prompt(reader, out, "HTTP address", config.DefaultHTTPAddr)
	a.DatabasePath = prompt(reader, out, "SQLite database path", filepath.Join(config.DataDir(), "chat.db"))

	fmt.Fprintln(out, "\n--- Executor Configuration ---")
	a.ExecutorMode = prompt(reader, out, "Executor mode (http/echo)", config.ExecutorModeHTTP)
	if a.ExecutorMode != config.ExecutorModeEcho {
		a.ExecutorURL = prompt(reader, out, "Executor URL", config.DefaultExecutorURL)
		a.Model = prompt(reader, out, "Model", config.DefaultModel)
	}

	fmt.Fprintln(out, "\n--- Access ---")
	secret, err := generateSecret()
	if err != nil {
		return err
	}
	a.SessionSecret = secret
	if password := prompt(reader, out, "Web UI password (leave empty for none)", ""); password != "" {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		a.PasswordHash = hash
	}

	fmt.Fprintln(out, "\n--- Tailscale Configuration ---")
	a.Tailscale = isYes(prompt(reader, out, "Enable Tailscale?", "no"))
	if a.Tailscale {
		a.TSHostname = prompt(reader, out, "Tailscale hostname", "codechat")
		a.TSHTTPS = isYes(prompt(reader, out, "Serve HTTPS with Tailscale certificates?", "no"))
	}

	fmt.Fprintln(out, "\n--- Logging Configuration ---")
	a.LogLevel = prompt(reader, out, "Log level (debug/info/warn/error)", "info")
	a.LogFormat = prompt(reader, out, "Log format (text/json/color)", "color")

	content := renderConfig(a)
	if _, err := config.Parse([]byte(content), config.FormatYAML); err != nil {
		return fmt.Errorf("generated config is invalid: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	// 0600: the file holds the session secret
	if err := os.WriteFile(outputFile, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(a.DatabasePath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Fprintf(out, "\nConfig written to %s\n", outputFile)
	fmt.Fprintf(out, "Data directory: %s\n", dataDir)
	fmt.Fprintln(out, "\nTo start the server:")
	fmt.Fprintln(out, "  codechat serve")
	return nil
}

// renderConfig produces the YAML config file for a.
func renderConfig(a initAnswers) string {
	var b strings.Builder
	b.WriteString("# codechat configuration\n")
	b.WriteString("# Generated by codechat init\n\n")

	// Server addresses are ignored on a tailnet
	if !a.Tailscale {
		b.WriteString("server:\n")
		fmt.Fprintf(&b, "  http_addr: %q\n\n", a.HTTPAddr)
	}

	b.WriteString("database:\n")
	fmt.Fprintf(&b, "  path: %q\n\n", a.DatabasePath)

	b.WriteString("executor:\n")
	fmt.Fprintf(&b, "  mode: %q\n", a.ExecutorMode)
	if a.ExecutorMode != config.ExecutorModeEcho {
		fmt.Fprintf(&b, "  url: %q\n", a.ExecutorURL)
		fmt.Fprintf(&b, "  model: %q\n", a.Model)
		b.WriteString("  api_key: \"${OPENAI_API_KEY}\"\n")
	}
	b.WriteString("\n")

	b.WriteString("auth:\n")
	fmt.Fprintf(&b, "  session_secret: %q\n", a.SessionSecret)
	if a.PasswordHash != "" {
		fmt.Fprintf(&b, "  password_hash: %q\n", a.PasswordHash)
	}
	b.WriteString("  session_ttl: \"168h\"\n\n")

	b.WriteString("tailscale:\n")
	fmt.Fprintf(&b, "  enabled: %t\n", a.Tailscale)
	if a.Tailscale {
		fmt.Fprintf(&b, "  hostname: %q\n", a.TSHostname)
		fmt.Fprintf(&b, "  https: %t\n", a.TSHTTPS)
	}
	b.WriteString("\n")

	b.WriteString("logging:\n")
	fmt.Fprintf(&b, "  level: %q\n", a.LogLevel)
	fmt.Fprintf(&b, "  format: %q\n", a.LogFormat)

	return b.String()
}

// generateSecret returns 32 random bytes, base64 encoded.
func generateSecret() (string, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(secretBytes), nil
}

func isYes(s string) bool {
	s = strings.ToLower(s)
	return s == "yes" || s == "y"
}

func prompt(reader *bufio.Reader, out io.Writer, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		// On EOF or error, return default
		fmt.Fprintln(out)
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
