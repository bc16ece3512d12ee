package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/linkedin-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "linkedin-cli",
	Short: "Resilient LinkedIn company batch scraper",
	Long:  "Resolves company names to LinkedIn company pages, scrapes their About data in ordered batches with session recovery, and records run history.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
