package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/verify"
)

func TestBuilderSuccessfulRun(t *testing.T) {
	rpt := NewBuilder("run-1").
		WithBackupSource("local:/srv/backups").
		WithArtifact("2024-03-15", "archivesspace-2024-03-15.sql.gz", 1024).
		WithReindexMode("soft").
		AddStep("select", StepOK, 0, "").
		AddStep("restore", StepOK, 42*time.Second, "").
		AddStep("reindex", StepOK, 0, "soft").
		Build()

	require.True(t, rpt.Summary.Success)
	require.Empty(t, rpt.Summary.FailedStep)
	require.False(t, rpt.Summary.StaleIndex)
	require.Equal(t, "2024-03-15", rpt.Artifact.Date)
}

func TestBuilderReindexFailureIsStaleIndex(t *testing.T) {
	rpt := NewBuilder("run-2").
		AddStep("select", StepOK, 0, "").
		AddStep("restore", StepOK, time.Minute, "").
		AddStep("reindex", StepFailed, 0, "solr unreachable").
		Build()

	require.False(t, rpt.Summary.Success)
	require.Equal(t, "reindex", rpt.Summary.FailedStep)
	require.True(t, rpt.Summary.StaleIndex)
}

func TestBuilderSelectionFailureIsNotStale(t *testing.T) {
	rpt := NewBuilder("run-3").
		AddStep("select", StepFailed, 0, "no backup dated 2023-12-25").
		AddStep("restore", StepSkipped, 0, "").
		AddStep("reindex", StepSkipped, 0, "").
		Build()

	require.False(t, rpt.Summary.Success)
	require.Equal(t, "select", rpt.Summary.FailedStep)
	require.False(t, rpt.Summary.StaleIndex)
}

func TestBuilderCriticalCheckFailsRun(t *testing.T) {
	rpt := NewBuilder("run-4").
		AddStep("select", StepOK, 0, "").
		AddStep("restore", StepOK, time.Minute, "").
		AddStep("reindex", StepOK, 0, "soft").
		WithChecks([]verify.CheckResult{
			{Name: "core_tables_exist", Level: verify.LevelCritical, Passed: false, Message: "Missing 2 core tables"},
		}).
		Build()

	require.False(t, rpt.Summary.Success)
	require.Equal(t, "verify", rpt.Summary.FailedStep)
}

func TestWriteListAndLoad(t *testing.T) {
	dir := t.TempDir()

	first := NewBuilder("aaa").AddStep("select", StepOK, 0, "").Build()
	first.Timestamp = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	second := NewBuilder("bbb").AddStep("select", StepFailed, 0, "empty store").Build()
	second.Timestamp = time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	for _, r := range []*Report{first, second} {
		_, err := WriteJSON(r, dir)
		require.NoError(t, err)
	}

	list, err := List(dir)
	require.NoError(t, err)
	require.Len(t, list, 2)

	// Newest first.
	require.Equal(t, "bbb", list[0].ID)
	require.False(t, list[0].Success)
	require.Equal(t, "aaa", list[1].ID)
	require.True(t, list[1].Success)

	loaded, err := Load(list[1].Path)
	require.NoError(t, err)
	require.Equal(t, "aaa", loaded.ID)
	require.Equal(t, ReportVersion, loaded.Version)
}

func TestListMissingDirectory(t *testing.T) {
	list, err := List(t.TempDir() + "/never-created")
	require.NoError(t, err)
	require.Empty(t, list)
}
