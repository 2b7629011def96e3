package orchestrator

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/backup"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/index"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/restore"
)

type fakeStore struct {
	artifacts []backup.Artifact
	listErr   error
	contents  string
	opened    []string
}

func (s *fakeStore) List(ctx context.Context) ([]backup.Artifact, error) {
	return s.artifacts, s.listErr
}

func (s *fakeStore) Open(ctx context.Context, a backup.Artifact) (io.ReadCloser, error) {
	s.opened = append(s.opened, a.Key)
	return io.NopCloser(strings.NewReader(s.contents)), nil
}

func (s *fakeStore) Identifier() string { return "fake:store" }

type fakeDatabase struct {
	result   *restore.Result
	err      error
	calls    int
	received string
}

func (d *fakeDatabase) Restore(ctx context.Context, r io.Reader) (*restore.Result, error) {
	d.calls++
	data, _ := io.ReadAll(r)
	d.received = string(data)
	if d.result == nil && d.err == nil {
		return &restore.Result{ExitCode: 0}, nil
	}
	return d.result, d.err
}

type fakeIndexService struct {
	err   error
	calls []index.Mode
}

func (f *fakeIndexService) Trigger(ctx context.Context, mode index.Mode) error {
	f.calls = append(f.calls, mode)
	return f.err
}

func artifactsByDate(dates ...string) []backup.Artifact {
	artifacts := make([]backup.Artifact, len(dates))
	for i, d := range dates {
		artifacts[i] = backup.Artifact{Date: d, Key: "archivesspace-" + d + ".sql"}
	}
	return artifacts
}

func newTestOrchestrator(store *fakeStore, db *fakeDatabase, idx *fakeIndexService) *Orchestrator {
	return &Orchestrator{Store: store, Database: db, Index: idx}
}

func TestSelectArtifactPicksLatestWhenNoDateGiven(t *testing.T) {
	store := &fakeStore{artifacts: artifactsByDate("2024-01-01", "2024-03-15", "2024-02-10")}
	o := newTestOrchestrator(store, &fakeDatabase{}, &fakeIndexService{})

	artifact, err := o.SelectArtifact(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "2024-03-15", artifact.Date)
}

func TestSelectArtifactExactDate(t *testing.T) {
	store := &fakeStore{artifacts: artifactsByDate("2024-01-01", "2024-03-15", "2024-02-10")}
	o := newTestOrchestrator(store, &fakeDatabase{}, &fakeIndexService{})

	artifact, err := o.SelectArtifact(context.Background(), "2024-02-10")
	require.NoError(t, err)
	require.Equal(t, "2024-02-10", artifact.Date)
}

func TestSelectArtifactMissingDateIsNotFound(t *testing.T) {
	store := &fakeStore{artifacts: artifactsByDate("2024-01-01", "2024-03-15")}
	o := newTestOrchestrator(store, &fakeDatabase{}, &fakeIndexService{})

	_, err := o.SelectArtifact(context.Background(), "2023-12-25")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSelectArtifactEmptyStoreIsNotFound(t *testing.T) {
	o := newTestOrchestrator(&fakeStore{}, &fakeDatabase{}, &fakeIndexService{})

	_, err := o.SelectArtifact(context.Background(), "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSelectArtifactRejectsMalformedDate(t *testing.T) {
	store := &fakeStore{artifacts: artifactsByDate("2024-01-01")}
	o := newTestOrchestrator(store, &fakeDatabase{}, &fakeIndexService{})

	_, err := o.SelectArtifact(context.Background(), "01/02/2024")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestRunPerformsOneRestoreAndOneSoftReindex(t *testing.T) {
	store := &fakeStore{
		artifacts: artifactsByDate("2024-01-01", "2024-03-15"),
		contents:  "-- dump",
	}
	db := &fakeDatabase{}
	idx := &fakeIndexService{}
	o := newTestOrchestrator(store, db, idx)

	result, err := o.Run(context.Background(), Options{})
	require.NoError(t, err)

	require.Equal(t, "2024-03-15", result.Artifact.Date)
	require.Equal(t, 1, db.calls)
	require.Equal(t, "-- dump", db.received)
	require.Equal(t, []index.Mode{index.ModeSoft}, idx.calls)
	require.True(t, result.Reindexed)
}

func TestRunRebuildFlagSelectsFullRebuild(t *testing.T) {
	store := &fakeStore{artifacts: artifactsByDate("2024-03-15")}
	idx := &fakeIndexService{}
	o := newTestOrchestrator(store, &fakeDatabase{}, idx)

	_, err := o.Run(context.Background(), Options{RebuildIndex: true})
	require.NoError(t, err)
	require.Equal(t, []index.Mode{index.ModeFullRebuild}, idx.calls)
	require.NotContains(t, idx.calls, index.ModeSoft)
}

func TestRunSelectionFailureMakesNoCalls(t *testing.T) {
	store := &fakeStore{artifacts: artifactsByDate("2024-01-01")}
	db := &fakeDatabase{}
	idx := &fakeIndexService{}
	o := newTestOrchestrator(store, db, idx)

	_, err := o.Run(context.Background(), Options{Date: "2023-12-25"})
	require.ErrorIs(t, err, ErrNotFound)
	require.Zero(t, db.calls)
	require.Empty(t, idx.calls)
	require.Empty(t, store.opened)
}

func TestRunRestoreFailureSkipsReindex(t *testing.T) {
	store := &fakeStore{artifacts: artifactsByDate("2024-03-15")}
	db := &fakeDatabase{result: &restore.Result{ExitCode: 1, Output: "ERROR 1044"}}
	idx := &fakeIndexService{}
	o := newTestOrchestrator(store, db, idx)

	result, err := o.Run(context.Background(), Options{})
	require.ErrorIs(t, err, ErrRestoreFailed)
	require.Contains(t, err.Error(), "ERROR 1044")
	require.Equal(t, 1, db.calls)
	require.Empty(t, idx.calls)
	require.False(t, result.Reindexed)
}

func TestRunReindexFailureAfterSuccessfulRestore(t *testing.T) {
	store := &fakeStore{artifacts: artifactsByDate("2024-03-15")}
	db := &fakeDatabase{}
	idx := &fakeIndexService{err: errors.New("solr unreachable")}
	o := newTestOrchestrator(store, db, idx)

	result, err := o.Run(context.Background(), Options{})
	require.ErrorIs(t, err, ErrReindexFailed)

	// The restore already happened and is not rolled back.
	require.Equal(t, 1, db.calls)
	require.NotNil(t, result.Restore)
	require.Zero(t, result.Restore.ExitCode)
	require.False(t, result.Reindexed)
	require.Len(t, idx.calls, 1)
}

func TestReindexRejectsInvalidMode(t *testing.T) {
	o := newTestOrchestrator(&fakeStore{}, &fakeDatabase{}, &fakeIndexService{})
	err := o.Reindex(context.Background(), index.Mode("partial"))
	require.Error(t, err)
}
