package orchestrator

import "errors"

// Failure taxonomy for the restore pipeline. Each step wraps exactly one
// of these, so callers can map a failed run to its step with errors.Is.
var (
	// ErrNotFound means no backup artifact matched the request: either
	// the store is empty or no artifact carries the requested date.
	ErrNotFound = errors.New("no matching backup artifact")
	// ErrRestoreFailed means the database restore command reported an
	// error. The database may be partially written; never retried
	// automatically.
	ErrRestoreFailed = errors.New("database restore failed")
	// ErrReindexFailed means the reindex trigger failed after the
	// restore already completed. The database is updated, the index is
	// stale; recover by re-running the reindex alone.
	ErrReindexFailed = errors.New("reindex failed")
)
