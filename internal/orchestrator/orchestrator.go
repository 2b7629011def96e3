// Package orchestrator sequences a backup restore: select exactly one
// dated artifact, restore it into the running database, trigger exactly
// one reindex signal. The three collaborators are narrow interfaces so
// the sequencing is testable without containers or network calls.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/backup"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/crypto"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/index"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/restore"
)

// Orchestrator runs the select → restore → reindex pipeline.
type Orchestrator struct {
	Store    backup.Store
	Database restore.DatabaseService
	Index    index.SearchIndexService
	// Decryptor is required only when the store holds age-encrypted
	// artifacts.
	Decryptor *crypto.AgeDecryptor
}

// Options controls one pipeline run.
type Options struct {
	// Date is an optional YYYY-MM-DD date; empty selects the most
	// recent artifact in the store.
	Date string
	// RebuildIndex selects a full index rebuild instead of the default
	// soft reindex.
	RebuildIndex bool
}

// RunResult records what a completed (or partially completed) run did.
type RunResult struct {
	Artifact        backup.Artifact
	Restore         *restore.Result
	RestoreDuration time.Duration
	Mode            index.Mode
	Reindexed       bool
}

// SelectArtifact resolves an optional requested date against the store.
// With no date it returns the artifact with the greatest date; with a
// date it returns the exact match. Read-only; fails with ErrNotFound when
// nothing matches.
func (o *Orchestrator) SelectArtifact(ctx context.Context, requestedDate string) (backup.Artifact, error) {
	if requestedDate != "" && !backup.ValidDate(requestedDate) {
		return backup.Artifact{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", requestedDate)
	}

	artifacts, err := o.Store.List(ctx)
	if err != nil {
		return backup.Artifact{}, fmt.Errorf("failed to list backup store: %w", err)
	}

	if requestedDate == "" {
		if len(artifacts) == 0 {
			return backup.Artifact{}, fmt.Errorf("%w: backup store %s is empty",
				ErrNotFound, o.Store.Identifier())
		}
		latest := artifacts[0]
		for _, a := range artifacts[1:] {
			if a.Date > latest.Date {
				latest = a
			}
		}
		return latest, nil
	}

	for _, a := range artifacts {
		if a.Date == requestedDate {
			return a, nil
		}
	}
	return backup.Artifact{}, fmt.Errorf("%w: no backup dated %s in %s",
		ErrNotFound, requestedDate, o.Store.Identifier())
}

// Restore streams the artifact into the database service and waits for
// completion. The database content is overwritten; a failure leaves it in
// whatever state the restore command left it, and is never retried here.
func (o *Orchestrator) Restore(ctx context.Context, artifact backup.Artifact) (*restore.Result, error) {
	stream, err := o.Store.Open(ctx, artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup %s: %w", artifact.Name(), err)
	}

	sqlStream, err := restore.OpenSQLStream(stream, artifact.Name(), o.Decryptor)
	if err != nil {
		return nil, err
	}
	defer sqlStream.Close()

	result, err := o.Database.Restore(ctx, sqlStream)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRestoreFailed, err)
	}
	if result.ExitCode != 0 {
		return result, fmt.Errorf("%w: restore command exited %d:\n%s",
			ErrRestoreFailed, result.ExitCode, result.Output)
	}
	return result, nil
}

// Reindex sends exactly one reindex signal. A failure here does not roll
// back a restore already performed; restore and reindex are not
// transactional together.
func (o *Orchestrator) Reindex(ctx context.Context, mode index.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid reindex mode: %q", mode)
	}
	if err := o.Index.Trigger(ctx, mode); err != nil {
		return fmt.Errorf("%w: %w", ErrReindexFailed, err)
	}
	return nil
}

// Run executes the linear pipeline: select, restore, reindex. Any step's
// failure aborts immediately. The returned RunResult describes whatever
// completed, even when the error is non-nil, so callers can report a
// stale-index state after a reindex failure.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*RunResult, error) {
	result := &RunResult{Mode: index.ParseMode(opts.RebuildIndex)}

	artifact, err := o.SelectArtifact(ctx, opts.Date)
	if err != nil {
		return result, err
	}
	result.Artifact = artifact
	fmt.Printf("✓ Selected backup %s (%s)\n", artifact.Name(), artifact.Date)

	fmt.Println("Restoring database...")
	start := time.Now()
	restoreResult, err := o.Restore(ctx, artifact)
	result.Restore = restoreResult
	result.RestoreDuration = time.Since(start)
	if err != nil {
		return result, err
	}
	fmt.Printf("✓ Database restored in %s.\n", result.RestoreDuration.Round(time.Second))

	fmt.Printf("Triggering %s reindex...\n", result.Mode)
	if err := o.Reindex(ctx, result.Mode); err != nil {
		return result, err
	}
	result.Reindexed = true
	fmt.Println("✓ Reindex triggered.")

	return result, nil
}
