package backup

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		filename string
		date     string
		ok       bool
	}{
		{"archivesspace-2024-03-15.sql.gz", "2024-03-15", true},
		{"archivesspace-2024-03-15.sql", "2024-03-15", true},
		{"archivesspace-2024-03-15.sql.gz.age", "2024-03-15", true},
		{"my-db-name-2023-01-02.sql.gz", "2023-01-02", true},
		{"archivesspace-2024-13-40.sql.gz", "", false}, // not a calendar date
		{"archivesspace.sql.gz", "", false},
		{"2024-03-15.sql.gz", "", false}, // no name prefix
		{"notes.txt", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		date, ok := ParseDate(tt.filename)
		require.Equal(t, tt.ok, ok, "filename %q", tt.filename)
		require.Equal(t, tt.date, date, "filename %q", tt.filename)
	}
}

func TestValidDate(t *testing.T) {
	require.True(t, ValidDate("2024-03-15"))
	require.False(t, ValidDate("2024-3-15"))
	require.False(t, ValidDate("15-03-2024"))
	require.False(t, ValidDate("yesterday"))
}

func TestArtifactName(t *testing.T) {
	require.Equal(t, "db-2024-03-15.sql.gz", Artifact{Key: "backups/nightly/db-2024-03-15.sql.gz"}.Name())
	require.Equal(t, "db-2024-03-15.sql.gz", Artifact{Key: "db-2024-03-15.sql.gz"}.Name())
}
