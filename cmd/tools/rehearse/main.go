// Command rehearse drives interviews and speech recognition from a terminal, against the same
// configuration the API server uses.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/trait-interview/backend/internal/config"
	"github.com/zhouzirui/trait-interview/backend/internal/logging"
	"github.com/zhouzirui/trait-interview/backend/internal/model/trait"
)

var (
	catalogPath string
	timeout     time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "rehearse",
	Short:         "Rehearse trait interviews from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env 缺失时直接使用系统环境变量
		_ = godotenv.Load()
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "trait catalog file (.yaml/.yml/.toml); defaults to TRAIT_CATALOG or the built-in catalog")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "per-call timeout; defaults to CAPABILITY_TIMEOUT")

	rootCmd.AddCommand(newTraitsCmd(), newRunCmd(), newTranscribeCmd())
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and the logger shared by every subcommand.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("load configuration: %w", err)
	}
	if catalogPath != "" {
		cfg.Interview.CatalogPath = catalogPath
	}
	if timeout > 0 {
		cfg.Interview.CapabilityTimeout = timeout
		cfg.Speech.Timeout = timeout
	}
	return cfg, logging.New(cfg.Log).With().Str("tool", "rehearse").Logger(), nil
}

func loadCatalog(cfg config.InterviewConfig) (trait.Catalog, error) {
	if cfg.CatalogPath == "" {
		return trait.NewMemoryCatalog(trait.Seed()), nil
	}
	return trait.LoadFile(cfg.CatalogPath)
}

func newTraitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "traits",
		Short: "Print the trait catalog in interview order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg.Interview)
			if err != nil {
				return err
			}
			printTraits(cmd.OutOrStdout(), catalog)
			return nil
		},
	}
}
