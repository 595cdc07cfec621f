// Package main is the local command line front end for the Ko-Connect tools.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/koconnect/koconnect/internal/app"
	"github.com/koconnect/koconnect/internal/config"
	"github.com/koconnect/koconnect/internal/logger"
)

var (
	verbose    bool
	jsonOutput bool
	timeout    time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "koconnect",
	Short: "Korean learning helpers: translate, restyle, read images, compare",
	Long: `koconnect translates between Korean and the configured languages,
rewrites Korean text in a chosen style, extracts text from images and
shows which words changed between two versions of a sentence.

Configuration is read from config.yaml, .env and the environment
(OPENAI_API_KEY, OPENAI_CHAT_MODEL, OPENAI_VISION_MODEL, ...).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(styleCmd)
	rootCmd.AddCommand(ocrCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(stylesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadApp builds the component graph from configuration.
func loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	log := logger.NewStructured(level, "console")

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	return a, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
