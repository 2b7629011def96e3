package cmd

import (
	"context"
	"fmt"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/config"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/index"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/orchestrator"
	"github.com/spf13/cobra"
)

var reindexFull bool

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Trigger a search index reindex",
	Long: `Triggers a reindex without touching the database. This is the
recovery path when a restore succeeded but its reindex step failed.

The default soft reindex re-syncs the index in place and is idempotent.
--full drops the index data volumes and restarts the stack, which is
required after index schema or configuration changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		fmt.Println("✓ Configuration loaded.")

		runner := newRunner(cfg)
		orch := &orchestrator.Orchestrator{
			Index: index.NewSolrService(runner, cfg.Deployment.AppContainer, &cfg.Index),
		}

		mode := index.ParseMode(reindexFull)
		fmt.Printf("Triggering %s reindex...\n", mode)
		if err := orch.Reindex(ctx, mode); err != nil {
			return err
		}
		fmt.Println("✓ Reindex triggered.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
	reindexCmd.Flags().BoolVar(&reindexFull, "full", false,
		"Drop and rebuild the index instead of a soft reindex")
}
