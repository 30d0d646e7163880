// Package cli provides the command-line interface for tripchat.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/raphaelgruber/tripchat/internal/client"
	"github.com/raphaelgruber/tripchat/internal/config"
	"github.com/raphaelgruber/tripchat/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, logger and backend client
	cfg       config.Config
	logger    = slog.New(slog.DiscardHandler)
	closeLog  func() error
	apiClient *client.Client
	collector *metrics.Collector
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tripchat",
	Short: "Terminal client for the trip planning assistant",
	Long: `Tripchat talks to the trip planning assistant from the terminal.

Ask for flights or a city itinerary, follow up on suggestions, browse saved
conversations and inspect flight offers. Replies are streamed as they are
generated.

Configuration is read from TRIPCHAT_* environment variables
(TRIPCHAT_API_URL, TRIPCHAT_API_TOKEN, TRIPCHAT_USER_ID, ...).`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		// The chat UI owns the terminal; log to the file only.
		logger, closeLog = config.SetupLogger(cfg.LogFile, level, cmd.Name() == chatCmd.Name())

		collector = metrics.NewCollector()
		opts := []client.Option{
			client.WithTimeout(cfg.ClientTimeout),
			client.WithStreamTimeout(cfg.StreamTimeout),
			client.WithCollector(collector),
			client.WithLogger(logger),
		}
		if cfg.APIToken != "" {
			opts = append(opts, client.WithToken(cfg.APIToken))
		}
		apiClient = client.New(cfg.APIURL, opts...)

		logger.Debug("client configured", "url", cfg.APIURL, "stream_timeout", cfg.StreamTimeout)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog == nil {
			return
		}
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	},
}

// Execute adds all child commands to the root command and runs it.
// Interrupts cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(airportsCmd)
	rootCmd.AddCommand(offerCmd)
	rootCmd.AddCommand(routeCmd)
}
