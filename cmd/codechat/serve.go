// ABOUTME: The serve command loads configuration and runs the codechat server
// ABOUTME: Prints a startup banner and stops cleanly on SIGINT or SIGTERM

package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/codechat/internal/config"
	"github.com/2389/codechat/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, cmd.OutOrStdout())
		},
	}
}

func runServe(ctx context.Context, out io.Writer) error {
	cyan := color.New(color.FgCyan)
	cyan.Fprint(out, banner)

	gray := color.New(color.FgHiBlack)
	gray.Fprintf(out, "    version: %s\n\n", version)

	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging, out)
	printStartup(out, cfg, configPath)

	logger.Info("starting codechat",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"executor", cfg.Executor.Mode,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

// printStartup writes the colored summary shown under the banner.
func printStartup(out io.Writer, cfg *config.Config, configPath string) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	line := func(label, value string) {
		green.Fprint(out, "    ▶ ")
		fmt.Fprintf(out, "%-10s %s\n", label+":", value)
	}

	line("Config", configPath)
	line("Database", cfg.Database.Path)
	if cfg.Executor.Mode == config.ExecutorModeEcho {
		line("Executor", "echo")
	} else {
		line("Executor", cfg.Executor.URL+" ("+cfg.Executor.Model+")")
	}

	if cfg.Tailscale.Enabled {
		green.Fprint(out, "    ▶ ")
		fmt.Fprintf(out, "%-10s ", "Tailscale:")
		color.New(color.FgCyan).Fprint(out, cfg.Tailscale.Hostname)
		if cfg.Tailscale.HTTPS {
			yellow.Fprint(out, " [https]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Fprint(out, " (ephemeral)")
		}
		fmt.Fprintln(out)
	} else {
		line("HTTP", cfg.Server.HTTPAddr)
		if cfg.Server.GRPCAddr != "" {
			line("gRPC", cfg.Server.GRPCAddr)
		}
	}

	if cfg.Auth.PasswordHash == "" {
		yellow.Fprintln(out, "    ! no password set; anyone who can reach the server can use it")
	}
	fmt.Fprintln(out)
}
