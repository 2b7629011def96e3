package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/config"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/index"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/orchestrator"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/report"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/restore"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/verify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	restoreRebuildIndex bool
	restoreSkipVerify   bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore [YYYY-MM-DD]",
	Short: "Restore a database backup and reindex",
	Long: `Restores one dated backup into the running database and triggers a
search index reindex.

With no date, the most recent backup in the store is restored. With a
date, the backup must exist for exactly that date.

The pipeline is strictly linear:
1. Select the backup artifact.
2. Restore it into the database container (overwrites live content).
3. Trigger a reindex (soft by default, --rebuild-index for a full rebuild).

Restore and reindex are not transactional: if the reindex fails after a
successful restore, the database is updated and the index is stale.
Recover by re-running 'aspace reindex' alone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		fmt.Println("✓ Configuration loaded.")

		var requestedDate string
		if len(args) == 1 {
			requestedDate = args[0]
		}

		store, err := newStore(cfg)
		if err != nil {
			return err
		}
		decryptor, err := newDecryptor(cfg)
		if err != nil {
			return err
		}

		runner := newRunner(cfg)
		db, err := restore.NewMySQLService(runner, &cfg.Database)
		if err != nil {
			return err
		}

		orch := &orchestrator.Orchestrator{
			Store:     store,
			Database:  db,
			Index:     index.NewSolrService(runner, cfg.Deployment.AppContainer, &cfg.Index),
			Decryptor: decryptor,
		}

		builder := report.NewBuilder(uuid.New().String()).
			WithBackupSource(store.Identifier()).
			WithReindexMode(index.ParseMode(restoreRebuildIndex).String())

		result, runErr := orch.Run(ctx, orchestrator.Options{
			Date:         requestedDate,
			RebuildIndex: restoreRebuildIndex,
		})
		recordPipelineSteps(builder, result, runErr)

		restored := result.Restore != nil && result.Restore.ExitCode == 0
		if restored {
			if cfg.CLI.ResetAdminPassword {
				fmt.Println("Resetting admin password...")
				if err := restore.ResetAdminPassword(ctx, runner, cfg.Deployment.AppContainer); err != nil {
					// Not part of the restore pipeline; report but keep going.
					fmt.Printf("✗ Admin password reset failed: %v\n", err)
				} else {
					fmt.Println("✓ Admin password reset.")
				}
			}

			if !restoreSkipVerify && cfg.Database.Addr != "" {
				checks, verifyErr := runPostRestoreChecks(ctx, cfg)
				builder.WithChecks(checks)
				if verifyErr != nil && runErr == nil {
					runErr = verifyErr
				}
			}
		}

		rpt := builder.Build()
		if path, err := report.WriteJSON(rpt, cfg.CLI.ReportDir); err != nil {
			fmt.Printf("✗ Failed to write run report: %v\n", err)
		} else {
			fmt.Printf("✓ Run report saved to %s\n", path)
		}

		if runErr != nil {
			if errors.Is(runErr, orchestrator.ErrReindexFailed) {
				fmt.Println("\nThe database was restored but the search index is stale.")
				fmt.Println("Re-run the index step alone with: aspace reindex")
			}
			return runErr
		}

		fmt.Printf("\n✓ Restore of %s complete.\n", result.Artifact.Date)
		return nil
	},
}

// recordPipelineSteps maps a pipeline outcome onto report steps. Exactly
// one restore and one reindex step appear per run; steps after the
// failing one are recorded as skipped.
func recordPipelineSteps(builder *report.Builder, result *orchestrator.RunResult, runErr error) {
	if result.Artifact.Date == "" {
		detail := ""
		if runErr != nil {
			detail = runErr.Error()
		}
		builder.AddStep("select", report.StepFailed, 0, detail).
			AddStep("restore", report.StepSkipped, 0, "").
			AddStep("reindex", report.StepSkipped, 0, "")
		return
	}
	builder.WithArtifact(result.Artifact.Date, result.Artifact.Name(), result.Artifact.Size)
	builder.AddStep("select", report.StepOK, 0, result.Artifact.Name())

	if result.Restore == nil || result.Restore.ExitCode != 0 {
		detail := ""
		if runErr != nil {
			detail = runErr.Error()
		}
		builder.AddStep("restore", report.StepFailed, result.RestoreDuration, detail).
			AddStep("reindex", report.StepSkipped, 0, "")
		return
	}
	builder.AddStep("restore", report.StepOK, result.RestoreDuration, "")

	if result.Reindexed {
		builder.AddStep("reindex", report.StepOK, 0, result.Mode.String())
	} else {
		detail := ""
		if runErr != nil {
			detail = runErr.Error()
		}
		builder.AddStep("reindex", report.StepFailed, 0, detail)
	}
}

// runPostRestoreChecks connects to the restored database and runs the
// sanity checkers. A critical failure is returned as an error; warnings
// only show up in the output and the report.
func runPostRestoreChecks(ctx context.Context, cfg *config.Config) ([]verify.CheckResult, error) {
	fmt.Println("Running post-restore checks...")
	db, err := verify.Connect(&cfg.Database)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	checkers := []verify.Checker{
		verify.NewCoreTablesChecker(),
		verify.NewTableCountChecker(100),
		verify.NewNonEmptyTablesChecker(10),
		verify.NewTotalRowCountChecker(1),
	}
	results := verify.RunChecks(ctx, db, checkers)

	for _, r := range results {
		status := "✓"
		if !r.Passed {
			status = "✗"
		}
		fmt.Printf("  %s [%s] %s: %s\n", status, r.Level, r.Name, r.Message)
	}

	critical, warning, _ := verify.CountFailures(results)
	switch {
	case critical > 0:
		return results, fmt.Errorf("post-restore checks failed with %d critical failure(s)", critical)
	case warning > 0:
		fmt.Printf("⚠ Post-restore checks passed with %d warning(s).\n", warning)
	default:
		fmt.Println("✓ All post-restore checks passed.")
	}
	return results, nil
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().BoolVar(&restoreRebuildIndex, "rebuild-index", false,
		"Drop and rebuild the search index instead of a soft reindex")
	restoreCmd.Flags().BoolVar(&restoreSkipVerify, "skip-verify", false,
		"Skip post-restore database checks")
}
