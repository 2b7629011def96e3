package verify

import (
	"context"
	"database/sql"
)

// Level indicates the severity of a check.
type Level string

const (
	LevelCritical Level = "critical" // Failures are blocking
	LevelWarning  Level = "warning"  // Failures are concerning but not blocking
	LevelInfo     Level = "info"     // Informational only
)

// CheckResult represents the outcome of a post-restore check.
type CheckResult struct {
	Name    string `json:"name"`
	Level   Level  `json:"level"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// Checker defines the interface for post-restore database checks. Checks
// read the restored database; they never modify it.
type Checker interface {
	Check(ctx context.Context, db *sql.DB) CheckResult
}

// RunChecks executes a list of checkers and returns all results.
func RunChecks(ctx context.Context, db *sql.DB, checkers []Checker) []CheckResult {
	results := make([]CheckResult, 0, len(checkers))
	for _, c := range checkers {
		results = append(results, c.Check(ctx, db))
	}
	return results
}

// CountFailures returns the number of failed checks by level.
func CountFailures(results []CheckResult) (critical, warning, info int) {
	for _, r := range results {
		if !r.Passed {
			switch r.Level {
			case LevelCritical:
				critical++
			case LevelWarning:
				warning++
			case LevelInfo:
				info++
			}
		}
	}
	return
}
