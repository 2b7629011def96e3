package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CachingStore wraps a remote Store and keeps a local copy of every
// artifact it opens, so repeated restores of the same date do not
// re-download the backup.
type CachingStore struct {
	Store
	Dir string
}

// Open returns the cached copy when present, otherwise downloads the
// artifact into the cache directory first.
func (s *CachingStore) Open(ctx context.Context, a Artifact) (io.ReadCloser, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", s.Dir, err)
	}

	cached := filepath.Join(s.Dir, a.Name())
	if file, err := os.Open(cached); err == nil {
		fmt.Printf("Using cached backup: %s\n", cached)
		return file, nil
	}

	remote, err := s.Store.Open(ctx, a)
	if err != nil {
		return nil, err
	}
	defer remote.Close()

	// Download to a temp name and rename, so an interrupted download
	// never masquerades as a complete cached artifact.
	tmp, err := os.CreateTemp(s.Dir, a.Name()+".partial-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create cache file: %w", err)
	}
	if _, err := io.Copy(tmp, remote); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to download backup to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to finalize cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), cached); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to store backup in cache: %w", err)
	}

	file, err := os.Open(cached)
	if err != nil {
		return nil, fmt.Errorf("failed to open cached backup: %w", err)
	}
	return file, nil
}
