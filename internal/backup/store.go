package backup

import (
	"context"
	"fmt"
	"io"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/config"
)

// Store defines the interface for enumerating and opening backup artifacts.
type Store interface {
	// List returns every dated artifact in the store. Files that do not
	// follow the <name>-YYYY-MM-DD naming convention are skipped.
	List(ctx context.Context) ([]Artifact, error)
	// Open retrieves the artifact and returns a stream of its contents.
	Open(ctx context.Context, a Artifact) (io.ReadCloser, error)
	// Identifier returns a string identifying this store for run reports.
	Identifier() string
}

// NewStoreFromConfig creates the appropriate Store based on configuration.
func NewStoreFromConfig(cfg *config.Backup) (Store, error) {
	switch cfg.Source {
	case "local":
		if cfg.Local == nil || cfg.Local.Path == "" {
			return nil, fmt.Errorf("backup source is 'local' but path is not configured")
		}
		return &LocalStore{Path: cfg.Local.Path}, nil

	case "s3":
		if cfg.S3 == nil {
			return nil, fmt.Errorf("backup source is 's3' but s3 configuration is missing")
		}
		return NewS3Store(cfg.S3)

	default:
		return nil, fmt.Errorf("unsupported backup source type: %s", cfg.Source)
	}
}
