package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatdesk/chatdesk/internal/config"
	"github.com/chatdesk/chatdesk/internal/knowledge"
	"github.com/chatdesk/chatdesk/internal/log"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the default FAQ entries into the knowledge base",
	Long: `Seed inserts the default FAQ set into the faqs table, recording a
change-log entry for each row. Running it against a populated knowledge base
inserts duplicates; it is intended for fresh databases.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(cmd)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON})
	ctx := cmd.Context()

	pool, err := buildPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := knowledge.NewStore(pool, logger)
	entries := knowledge.DefaultSeed()
	if err := store.Seed(ctx, entries); err != nil {
		return fmt.Errorf("seeding knowledge base: %w", err)
	}

	fmt.Printf("seeded %d FAQ entries\n", len(entries))
	return nil
}
