package verify

import (
	"context"
	"database/sql"
	"fmt"
)

// NonEmptyTablesChecker verifies that tables actually carry data.
// Row estimates come from information_schema; for InnoDB they are
// approximate, which is fine for an is-this-empty check.
type NonEmptyTablesChecker struct {
	// MinimumTables is the minimum number of tables that should have data.
	MinimumTables int
}

func NewNonEmptyTablesChecker(minimumTables int) *NonEmptyTablesChecker {
	return &NonEmptyTablesChecker{MinimumTables: minimumTables}
}

func (c *NonEmptyTablesChecker) Check(ctx context.Context, db *sql.DB) CheckResult {
	result := CheckResult{
		Name:  "non_empty_tables",
		Level: LevelWarning,
	}

	var tablesWithData int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.tables
		 WHERE table_schema = DATABASE() AND table_rows > 0`).Scan(&tablesWithData)
	if err != nil {
		result.Passed = false
		result.Message = fmt.Sprintf("Failed to query table rows: %v", err)
		return result
	}

	if tablesWithData >= c.MinimumTables {
		result.Passed = true
		result.Message = fmt.Sprintf("%d tables have data", tablesWithData)
	} else {
		result.Passed = false
		result.Message = fmt.Sprintf("Only %d tables have data (minimum: %d)", tablesWithData, c.MinimumTables)
	}
	return result
}

// TotalRowCountChecker verifies the database has a minimum total row count.
type TotalRowCountChecker struct {
	MinimumRows int64
}

func NewTotalRowCountChecker(minimumRows int64) *TotalRowCountChecker {
	return &TotalRowCountChecker{MinimumRows: minimumRows}
}

func (c *TotalRowCountChecker) Check(ctx context.Context, db *sql.DB) CheckResult {
	result := CheckResult{
		Name:  "total_row_count",
		Level: LevelWarning,
	}

	var totalRows sql.NullInt64
	err := db.QueryRowContext(ctx,
		`SELECT SUM(table_rows) FROM information_schema.tables
		 WHERE table_schema = DATABASE()`).Scan(&totalRows)
	if err != nil {
		result.Passed = false
		result.Message = fmt.Sprintf("Failed to sum table rows: %v", err)
		return result
	}

	if totalRows.Int64 >= c.MinimumRows {
		result.Passed = true
		result.Message = fmt.Sprintf("Total row count: %d", totalRows.Int64)
	} else {
		result.Passed = false
		result.Message = fmt.Sprintf("Total row count %d is below minimum %d", totalRows.Int64, c.MinimumRows)
	}
	return result
}
