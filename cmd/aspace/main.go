package main

import (
	"errors"
	"os"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/cmd"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/config"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/orchestrator"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps a failed run to its failing step, so cron wrappers and
// operators can tell a missing backup from a stale index.
func exitCode(err error) int {
	switch {
	case errors.Is(err, orchestrator.ErrNotFound):
		return 2 // no matching backup artifact
	case errors.Is(err, orchestrator.ErrRestoreFailed):
		return 3 // database restore failed
	case errors.Is(err, orchestrator.ErrReindexFailed):
		return 4 // database restored, index stale
	case errors.Is(err, config.ErrMissing):
		return 5 // configuration incomplete
	}
	return 1
}
