package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/config"
	"github.com/spf13/cobra"
)

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "Inspect the backup store",
}

var backupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backup artifacts by date",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := newStore(cfg)
		if err != nil {
			return err
		}

		artifacts, err := store.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list backup store: %w", err)
		}
		if len(artifacts) == 0 {
			fmt.Printf("No backups found in %s.\n", store.Identifier())
			return nil
		}

		sort.Slice(artifacts, func(i, j int) bool {
			return artifacts[i].Date > artifacts[j].Date
		})

		fmt.Printf("Backups in %s:\n", store.Identifier())
		for i, a := range artifacts {
			marker := " "
			if i == 0 {
				marker = "*" // what 'aspace restore' would pick
			}
			fmt.Printf("%s %s  %10s  %s\n", marker, a.Date, formatBytes(a.Size), a.Name())
		}
		return nil
	},
}

func formatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

func init() {
	rootCmd.AddCommand(backupsCmd)
	backupsCmd.AddCommand(backupsListCmd)
}
