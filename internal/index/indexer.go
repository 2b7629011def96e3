package index

import (
	"context"
	"fmt"
)

// Mode selects how the search index is brought back in sync after a
// database restore.
type Mode string

const (
	// ModeSoft re-synchronizes the index in place against current
	// database content. Idempotent; running it twice yields the same
	// index as running it once.
	ModeSoft Mode = "soft"
	// ModeFullRebuild drops and recreates the index structure before
	// repopulating it. Required after index schema or config changes,
	// and materially slower than a soft reindex.
	ModeFullRebuild Mode = "full-rebuild"
)

// ParseMode maps the CLI rebuild flag onto a Mode.
func ParseMode(rebuild bool) Mode {
	if rebuild {
		return ModeFullRebuild
	}
	return ModeSoft
}

func (m Mode) String() string { return string(m) }

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeSoft || m == ModeFullRebuild
}

// SearchIndexService defines the interface for reindex triggers.
type SearchIndexService interface {
	// Trigger sends one reindex signal. It does not wait for the
	// repopulation itself to finish; the indexer runs inside the
	// application and catches up on its own schedule.
	Trigger(ctx context.Context, mode Mode) error
}

// unknownModeError is returned for modes this service does not implement.
func unknownModeError(m Mode) error {
	return fmt.Errorf("unknown reindex mode: %q", m)
}
