package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/config"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/upgrade"
	"github.com/spf13/cobra"
)

var upgradeRebuildSolr bool

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade the deployment to the configured release",
	Long: `Upgrades the ArchivesSpace deployment to deployment.release_tag:

1. Downloads and extracts the release zip.
2. Carries the local database name and domain into the new tree's config.
3. Stages the current day's backup into the new tree's sql/ directory.
4. Stops the stack, swaps the deployment symlink, pulls, and starts.

The stack is down for the duration of the final steps; run this inside a
maintenance window. --rebuild-solr additionally removes the index data
volumes so the new release rebuilds the index from its own schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		fmt.Println("✓ Configuration loaded.")

		store, err := newStore(cfg)
		if err != nil {
			return err
		}
		decryptor, err := newDecryptor(cfg)
		if err != nil {
			return err
		}

		workDir := cfg.Deployment.ReleasesDir
		if workDir == "" {
			workDir = filepath.Dir(cfg.Deployment.Root)
		}

		upgrader := &upgrade.Upgrader{
			Config:    cfg,
			Runner:    newRunner(cfg),
			Store:     store,
			Decryptor: decryptor,
			WorkDir:   workDir,
		}

		if err := upgrader.Run(ctx, upgrade.Options{RebuildSolr: upgradeRebuildSolr}); err != nil {
			return err
		}

		fmt.Println("\n✓ Upgrade complete. The application may take a few minutes to become available.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(upgradeCmd)
	upgradeCmd.Flags().BoolVar(&upgradeRebuildSolr, "rebuild-solr", false,
		"Remove index data volumes for a fresh Solr rebuild")
}
