package cmd

import (
	"fmt"
	"time"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/backup"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/compose"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/config"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/crypto"
)

// newRunner builds the command runner for the deployment's compose
// project directory.
func newRunner(cfg *config.Config) *compose.Runner {
	return &compose.Runner{
		Dir:     cfg.Deployment.Root,
		Timeout: time.Duration(cfg.CLI.TimeoutMinutes) * time.Minute,
	}
}

// newStore builds the configured backup store, wrapped in a local cache
// for remote sources.
func newStore(cfg *config.Config) (backup.Store, error) {
	store, err := backup.NewStoreFromConfig(&cfg.Backup)
	if err != nil {
		return nil, fmt.Errorf("failed to create backup store: %w", err)
	}
	if cfg.Backup.Source == "s3" && cfg.Backup.CacheDir != "" {
		store = &backup.CachingStore{Store: store, Dir: cfg.Backup.CacheDir}
	}
	return store, nil
}

// newDecryptor returns nil when backups are not encrypted.
func newDecryptor(cfg *config.Config) (*crypto.AgeDecryptor, error) {
	if cfg.Encryption == nil {
		return nil, nil
	}
	decryptor, err := crypto.NewAgeDecryptor(cfg.Encryption.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create decryptor: %w", err)
	}
	return decryptor, nil
}
