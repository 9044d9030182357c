package main

import (
	"fmt"
	"os"

	"depthsim/internal/config"
	"depthsim/internal/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	logPretty  bool

	cfg    config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "orderbook",
	Short: "Multi-venue crypto order book monitor and fill simulator",
	Long: `orderbook streams level-2 books from OKX, Bybit and Deribit, falls back to
synthetic books when a venue cannot be reached, and simulates how hypothetical
market and limit orders would fill against the current book.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-pretty") {
			loaded.Log.Pretty = logPretty
		}
		cfg = loaded
		logger = logging.New(cfg.Log.Level, cfg.Log.Pretty)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "log-pretty", true, "Human-readable console logs instead of JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
