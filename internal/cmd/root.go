package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aspace",
	Short: "Manage an ArchivesSpace docker deployment",
	Long: `aspace manages an off-the-shelf ArchivesSpace docker deployment:
restore dated database backups into the running stack, trigger Solr
reindexing, verify restored data, and upgrade to new releases.`,
}

func Execute() error {
	return rootCmd.Execute()
}
