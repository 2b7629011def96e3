package verify

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CoreTables are tables every ArchivesSpace database contains; a restore
// that produced a database without them did not restore an ArchivesSpace
// dump.
var CoreTables = []string{"user", "repository", "resource", "archival_object", "accession"}

// CoreTablesChecker verifies that the expected core tables exist.
type CoreTablesChecker struct {
	Tables []string
}

func NewCoreTablesChecker() *CoreTablesChecker {
	return &CoreTablesChecker{Tables: CoreTables}
}

func (c *CoreTablesChecker) Check(ctx context.Context, db *sql.DB) CheckResult {
	result := CheckResult{
		Name:  "core_tables_exist",
		Level: LevelCritical,
	}

	var missing []string
	for _, table := range c.Tables {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT table_name FROM information_schema.tables
			 WHERE table_schema = DATABASE() AND table_name = ?`, table).Scan(&name)
		switch {
		case err == sql.ErrNoRows:
			missing = append(missing, table)
		case err != nil:
			result.Passed = false
			result.Message = fmt.Sprintf("Failed to query tables: %v", err)
			return result
		}
	}

	if len(missing) > 0 {
		result.Passed = false
		result.Message = fmt.Sprintf("Missing %d core tables: %s", len(missing), strings.Join(missing, ", "))
	} else {
		result.Passed = true
		result.Message = fmt.Sprintf("All %d core tables present", len(c.Tables))
	}
	return result
}

// TableCountChecker verifies the restored database has a plausible number
// of tables. An ArchivesSpace schema has well over a hundred.
type TableCountChecker struct {
	Minimum int
}

func NewTableCountChecker(minimum int) *TableCountChecker {
	return &TableCountChecker{Minimum: minimum}
}

func (c *TableCountChecker) Check(ctx context.Context, db *sql.DB) CheckResult {
	result := CheckResult{
		Name:  "table_count",
		Level: LevelWarning,
	}

	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE()`).Scan(&count)
	if err != nil {
		result.Passed = false
		result.Message = fmt.Sprintf("Failed to count tables: %v", err)
		return result
	}

	if count >= c.Minimum {
		result.Passed = true
		result.Message = fmt.Sprintf("Found %d tables", count)
	} else {
		result.Passed = false
		result.Message = fmt.Sprintf("Only %d tables found (minimum: %d)", count, c.Minimum)
	}
	return result
}
