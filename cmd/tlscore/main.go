package main

import (
	"context"
	"fmt"
	"os"

	"tlscore/internal/config"
	"tlscore/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string
	logFormat  string

	// Loaded in PersistentPreRunE
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tlscore",
	Short: "Score logic-reasoning agent transcripts",
	Long: `tlscore grades a recorded agent transcript against a reference solution.

The transcript is scanned for fenced JSON blocks. The first block carrying a
"program" key is the reasoning request the agent sent, the first carrying
"status" and "facts" is the tool output it got back. Rule and fact counts are
compared with the reference, derived facts are scored by F1, and a keyword
heuristic checks that the agent explained its result.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logFormat != "" {
			loaded.Logging.Format = logFormat
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}
		cfg = loaded

		logger, err = logging.Initialize(logging.Options{
			Level:   cfg.Logging.Level,
			Format:  cfg.Logging.Format,
			Verbose: verbose,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.Get(logging.CategoryBoot).Debug("config loaded",
			zap.String("path", configPath),
			zap.String("reference_dir", cfg.References.Dir),
			zap.Int("workers", cfg.Batch.Workers),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Config file (missing file means defaults)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json (overrides config)")

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// activeConfig returns the loaded config, or defaults when commands run
// without the root pre-run (tests).
func activeConfig() *config.Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}

// commandContext returns the command's context, falling back to Background.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
