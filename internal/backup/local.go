package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore implements Store for a directory of backup files.
type LocalStore struct {
	Path string
}

// List enumerates dated backup files in the directory.
func (s *LocalStore) List(ctx context.Context) ([]Artifact, error) {
	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory %s: %w", s.Path, err)
	}

	var artifacts []Artifact
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		date, ok := ParseDate(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		artifacts = append(artifacts, Artifact{
			Date: date,
			Key:  filepath.Join(s.Path, entry.Name()),
			Size: info.Size(),
		})
	}
	return artifacts, nil
}

// Open opens the backup file and returns it as a ReadCloser.
func (s *LocalStore) Open(ctx context.Context, a Artifact) (io.ReadCloser, error) {
	file, err := os.Open(a.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to open local backup file at %s: %w", a.Key, err)
	}
	return file, nil
}

// Identifier returns the directory path for traceability.
func (s *LocalStore) Identifier() string {
	return fmt.Sprintf("local:%s", s.Path)
}
