package upgrade

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/backup"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/config"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/orchestrator"
)

type memStore struct {
	artifacts []backup.Artifact
	contents  map[string]string
}

func (s *memStore) List(ctx context.Context) ([]backup.Artifact, error) {
	return s.artifacts, nil
}

func (s *memStore) Open(ctx context.Context, a backup.Artifact) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.contents[a.Key])), nil
}

func (s *memStore) Identifier() string { return "mem" }

func buildReleaseZip(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "release.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, contents := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestStageBackupStagesRequestedDate(t *testing.T) {
	// A newer backup exists; staging must still pick the requested day,
	// not whatever is newest in the store.
	store := &memStore{
		artifacts: []backup.Artifact{
			{Date: "2024-03-14", Key: "archivesspace-2024-03-14.sql"},
			{Date: "2024-03-15", Key: "archivesspace-2024-03-15.sql"},
			{Date: "2024-03-16", Key: "archivesspace-2024-03-16.sql"},
		},
		contents: map[string]string{
			"archivesspace-2024-03-15.sql": "-- march 15 dump\n",
		},
	}

	tree := t.TempDir()
	u := &Upgrader{Store: store}
	require.NoError(t, u.stageBackup(context.Background(), tree, "2024-03-15"))

	staged, err := os.ReadFile(filepath.Join(tree, "sql", "archivesspace-2024-03-15.sql"))
	require.NoError(t, err)
	require.Equal(t, "-- march 15 dump\n", string(staged))
}

func TestStageBackupFailsWhenDateMissing(t *testing.T) {
	store := &memStore{
		artifacts: []backup.Artifact{
			{Date: "2024-03-14", Key: "archivesspace-2024-03-14.sql"},
		},
	}
	u := &Upgrader{Store: store}
	err := u.stageBackup(context.Background(), t.TempDir(), "2024-03-15")
	require.ErrorIs(t, err, orchestrator.ErrNotFound)
}

func TestExtractZipStripsTopLevelDirectory(t *testing.T) {
	zipPath := buildReleaseZip(t, map[string]string{
		"archivesspace-docker-v4.1.1/.env":             "MYSQL_DATABASE=archivesspace\n",
		"archivesspace-docker-v4.1.1/config/config.rb": "AppConfig[:db_url] = \"jdbc:mysql://db/archivesspace\"\n",
	})
	dest := filepath.Join(t.TempDir(), "tree")

	require.NoError(t, extractZip(zipPath, dest))

	env, err := os.ReadFile(filepath.Join(dest, ".env"))
	require.NoError(t, err)
	require.Contains(t, string(env), "MYSQL_DATABASE")

	_, err = os.Stat(filepath.Join(dest, "config", "config.rb"))
	require.NoError(t, err)
}

func TestExtractZipRejectsPathTraversal(t *testing.T) {
	zipPath := buildReleaseZip(t, map[string]string{
		"release/../../etc/evil": "nope",
	})
	err := extractZip(zipPath, filepath.Join(t.TempDir(), "tree"))
	require.Error(t, err)
}

func TestSwapReleaseRelinksRoot(t *testing.T) {
	workDir := t.TempDir()
	oldTree := filepath.Join(workDir, "archivesspace-docker-v4.0.0")
	newTree := filepath.Join(workDir, "archivesspace-docker-v4.1.1")
	require.NoError(t, os.Mkdir(oldTree, 0755))
	require.NoError(t, os.Mkdir(newTree, 0755))

	root := filepath.Join(workDir, "archivesspace")
	require.NoError(t, os.Symlink(oldTree, root))

	u := &Upgrader{Config: &config.Config{Deployment: config.Deployment{Root: root}}}
	require.NoError(t, u.swapRelease(newTree))

	target, err := os.Readlink(root)
	require.NoError(t, err)
	require.Equal(t, newTree, target)
}

func TestSwapReleaseWithoutExistingLink(t *testing.T) {
	workDir := t.TempDir()
	newTree := filepath.Join(workDir, "archivesspace-docker-v4.1.1")
	require.NoError(t, os.Mkdir(newTree, 0755))

	root := filepath.Join(workDir, "archivesspace")
	u := &Upgrader{Config: &config.Config{Deployment: config.Deployment{Root: root}}}
	require.NoError(t, u.swapRelease(newTree))

	target, err := os.Readlink(root)
	require.NoError(t, err)
	require.Equal(t, newTree, target)
}
