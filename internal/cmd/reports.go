package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/config"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/report"
	"github.com/spf13/cobra"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Manage restore run reports",
	Long:  `List and view the reports recorded for past restore runs.`,
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all run reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		reports, err := report.List(cfg.CLI.ReportDir)
		if err != nil {
			return fmt.Errorf("failed to list reports: %w", err)
		}

		if len(reports) == 0 {
			fmt.Println("No reports found.")
			return nil
		}

		fmt.Printf("%-36s  %-20s  %-12s  %s\n", "ID", "Timestamp", "Backup Date", "Status")
		fmt.Println(strings.Repeat("-", 84))

		for _, r := range reports {
			status := "✓ Success"
			if !r.Success {
				status = "✗ Failed"
			}
			fmt.Printf("%-36s  %-20s  %-12s  %s\n",
				r.ID,
				r.Timestamp.Format("2006-01-02 15:04:05"),
				r.Date,
				status,
			)
		}

		return nil
	},
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Display a run report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reportID := args[0]

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		rpt, path, err := findReport(cfg.CLI.ReportDir, reportID)
		if err != nil {
			return err
		}

		showJSON, _ := cmd.Flags().GetBool("json")
		if showJSON {
			data, err := json.MarshalIndent(rpt, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Report: %s\n", rpt.ID)
		fmt.Printf("Path: %s\n", path)
		fmt.Printf("Timestamp: %s\n", rpt.Timestamp.Format("2006-01-02 15:04:05 UTC"))
		fmt.Printf("Backup Source: %s\n", rpt.BackupSource)
		if rpt.Artifact.Name != "" {
			fmt.Printf("Artifact: %s (%s, %s)\n", rpt.Artifact.Name, rpt.Artifact.Date, formatBytes(rpt.Artifact.Size))
		}
		fmt.Printf("Reindex Mode: %s\n", rpt.ReindexMode)
		fmt.Println()

		fmt.Println("Steps:")
		for _, s := range rpt.Steps {
			status := "✓"
			if s.Status == report.StepFailed {
				status = "✗"
			} else if s.Status == report.StepSkipped {
				status = "-"
			}
			line := fmt.Sprintf("  %s %s", status, s.Name)
			if s.Duration != "" {
				line += fmt.Sprintf(" (%s)", s.Duration)
			}
			if s.Detail != "" {
				line += ": " + s.Detail
			}
			fmt.Println(line)
		}
		fmt.Println()

		if len(rpt.Checks) > 0 {
			fmt.Println("Checks:")
			for _, c := range rpt.Checks {
				status := "✓"
				if !c.Passed {
					status = "✗"
				}
				fmt.Printf("  %s [%s] %s: %s\n", status, c.Level, c.Name, c.Message)
			}
			fmt.Println()
		}

		if rpt.Summary.Success {
			fmt.Println("Status: ✓ Success")
		} else {
			fmt.Printf("Status: ✗ Failed (step: %s)\n", rpt.Summary.FailedStep)
			if rpt.Summary.StaleIndex {
				fmt.Println("Database restored but index stale; re-run 'aspace reindex'.")
			}
		}

		return nil
	},
}

func findReport(dir string, id string) (*report.Report, string, error) {
	reports, err := report.List(dir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list reports: %w", err)
	}

	// Try exact match first
	for _, r := range reports {
		if r.ID == id {
			rpt, err := report.Load(r.Path)
			return rpt, r.Path, err
		}
	}

	// Try prefix match
	var matches []*report.ListSummary
	for _, r := range reports {
		if strings.HasPrefix(r.ID, id) {
			matches = append(matches, r)
		}
	}

	if len(matches) == 0 {
		// Try filename match
		pattern := filepath.Join(dir, "*"+id+"*.json")
		files, _ := filepath.Glob(pattern)
		if len(files) == 1 {
			rpt, err := report.Load(files[0])
			return rpt, files[0], err
		}
		return nil, "", fmt.Errorf("report not found: %s", id)
	}

	if len(matches) > 1 {
		return nil, "", fmt.Errorf("ambiguous report ID %q matches %d reports", id, len(matches))
	}

	rpt, err := report.Load(matches[0].Path)
	return rpt, matches[0].Path, err
}

func init() {
	rootCmd.AddCommand(reportsCmd)
	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)

	reportsShowCmd.Flags().Bool("json", false, "Output report as JSON")
}
