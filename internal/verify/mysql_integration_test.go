package verify

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/wait"
)

// initSQL approximates a freshly restored ArchivesSpace dump: the core
// tables plus one row each.
const initSQL = `
CREATE TABLE user (id INT PRIMARY KEY, username VARCHAR(255));
CREATE TABLE repository (id INT PRIMARY KEY, repo_code VARCHAR(255));
CREATE TABLE resource (id INT PRIMARY KEY, title VARCHAR(255));
CREATE TABLE archival_object (id INT PRIMARY KEY, ref_id VARCHAR(255));
CREATE TABLE accession (id INT PRIMARY KEY, identifier VARCHAR(255));
INSERT INTO user VALUES (1, 'admin');
INSERT INTO repository VALUES (1, 'caltech');
`

func TestCheckersAgainstRestoredDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()

	scriptPath := filepath.Join(t.TempDir(), "init.sql")
	require.NoError(t, os.WriteFile(scriptPath, []byte(initSQL), 0644))

	waitStrategy := wait.ForLog("ready for connections").
		WithOccurrence(2).
		WithStartupTimeout(5 * time.Minute)

	container, err := mysql.Run(ctx,
		"mysql:8.0",
		mysql.WithDatabase("archivesspace"),
		mysql.WithUsername("as"),
		mysql.WithPassword("as123"),
		mysql.WithScripts(scriptPath),
		testcontainers.WithWaitStrategy(waitStrategy),
	)
	require.NoError(t, err)
	defer container.Terminate(context.Background())

	dsn, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.PingContext(ctx))

	t.Run("core tables present", func(t *testing.T) {
		result := NewCoreTablesChecker().Check(ctx, db)
		require.True(t, result.Passed, result.Message)
		require.Equal(t, LevelCritical, result.Level)
	})

	t.Run("missing core table is critical", func(t *testing.T) {
		checker := &CoreTablesChecker{Tables: []string{"user", "no_such_table"}}
		result := checker.Check(ctx, db)
		require.False(t, result.Passed)
		require.Contains(t, result.Message, "no_such_table")
	})

	t.Run("table count", func(t *testing.T) {
		result := NewTableCountChecker(5).Check(ctx, db)
		require.True(t, result.Passed, result.Message)

		result = NewTableCountChecker(500).Check(ctx, db)
		require.False(t, result.Passed)
		require.Equal(t, LevelWarning, result.Level)
	})

	t.Run("total row count runs", func(t *testing.T) {
		// InnoDB row estimates lag inserts; assert the query works, not
		// the exact estimate.
		result := NewTotalRowCountChecker(0).Check(ctx, db)
		require.True(t, result.Passed, result.Message)
	})
}
