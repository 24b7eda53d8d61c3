package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"musicbox/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// rootOptions is shared by every subcommand
type rootOptions struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

// Execute runs the command line until it finishes or the process is
// interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the musicbox command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "musicbox",
		Short: "Personal music library server with a hardware remote",
		Long: `Serve a local music library to the browser and relay playback state and
remote-control buttons between browsers and a serial hardware controller.

Commands:
  serve    Run the HTTP and websocket server
  bridge   Connect a serial controller to a running server
  scan     Print the albums found in a music directory`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.LogLevel = opts.logLevel
			}
			if err := setupLogging(cfg.LogLevel); err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "Path to the TOML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(serveCmd(opts))
	cmd.AddCommand(bridgeCmd(opts))
	cmd.AddCommand(scanCmd(opts))

	return cmd
}

// setupLogging points the global logger at a console writer on stderr
func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	return nil
}
