package restore

import (
	"context"
	"io"
)

// Result carries the restore command's exit status and captured output.
type Result struct {
	ExitCode int
	Output   string
}

// DatabaseService defines the interface for database restore operations.
// A restore overwrites the live database content and is not retried; the
// caller decides what a non-zero exit status means.
type DatabaseService interface {
	// Restore feeds a plain SQL stream into the database and waits for
	// completion. The error return is reserved for failures to run the
	// restore at all; a failed restore is a Result with non-zero exit.
	Restore(ctx context.Context, backup io.Reader) (*Result, error)
}
