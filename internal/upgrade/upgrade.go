// Package upgrade moves the deployment to a new ArchivesSpace release:
// download and extract the release tree, carry the local configuration
// over, stage the current day's database backup, swap the deployment
// symlink, and cycle the compose stack.
package upgrade

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/backup"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/compose"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/config"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/crypto"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/orchestrator"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/restore"
)

const releaseURLFormat = "https://github.com/archivesspace/archivesspace/releases/download/%s/archivesspace-docker-%s.zip"

// Upgrader performs the release upgrade sequence.
type Upgrader struct {
	Config *config.Config
	Runner *compose.Runner
	Store  backup.Store
	// Decryptor is needed only when staged backups are age-encrypted.
	Decryptor *crypto.AgeDecryptor
	// WorkDir is where release trees are downloaded and kept; the
	// deployment root symlink points into it.
	WorkDir string
	Client  *http.Client
}

// Options controls one upgrade run.
type Options struct {
	// RebuildSolr removes the app and solr data volumes so the new
	// release recreates the index from its own schema.
	RebuildSolr bool
}

// Run executes the upgrade. The stack is down between the compose down
// and the final compose up; this is a maintenance-window operation.
func (u *Upgrader) Run(ctx context.Context, opts Options) error {
	tag := u.Config.Deployment.ReleaseTag
	if tag == "" {
		return fmt.Errorf("%w: deployment.release_tag", config.ErrMissing)
	}

	fmt.Printf("Downloading release %s...\n", tag)
	tree, err := u.downloadRelease(ctx, tag)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Release extracted to %s\n", tree)

	fmt.Println("Updating configuration files...")
	if err := u.rewriteReleaseConfig(tree); err != nil {
		return err
	}
	fmt.Println("✓ Configuration updated.")

	fmt.Println("Staging database backup...")
	if err := u.stageBackup(ctx, tree, time.Now().Format(backup.DateFormat)); err != nil {
		return err
	}
	fmt.Println("✓ Backup staged.")

	fmt.Println("Stopping ArchivesSpace services...")
	if err := u.Runner.Compose(ctx, "down"); err != nil {
		return err
	}

	if opts.RebuildSolr {
		fmt.Println("Removing data volumes for fresh Solr rebuild...")
		if err := u.Runner.RemoveVolumes(ctx, u.Config.Index.DataVolumes()...); err != nil {
			return err
		}
	}

	if err := u.swapRelease(tree); err != nil {
		return err
	}
	fmt.Printf("✓ Deployment now points at %s\n", tree)

	fmt.Println("Starting ArchivesSpace services...")
	if err := u.Runner.Compose(ctx, "pull"); err != nil {
		return err
	}
	if err := u.Runner.Compose(ctx, "up", "-d", "--build", "--force-recreate"); err != nil {
		return err
	}

	return nil
}

// downloadRelease fetches and extracts the release zip, returning the
// extracted tree path (workdir/archivesspace-docker-<tag>).
func (u *Upgrader) downloadRelease(ctx context.Context, tag string) (string, error) {
	client := u.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Minute}
	}

	url := fmt.Sprintf(releaseURLFormat, tag, tag)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build release request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: status %s", url, resp.Status)
	}

	zipPath := filepath.Join(u.WorkDir, fmt.Sprintf("archivesspace-docker-%s.zip", tag))
	zipFile, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", zipPath, err)
	}
	if _, err := io.Copy(zipFile, resp.Body); err != nil {
		zipFile.Close()
		os.Remove(zipPath)
		return "", fmt.Errorf("failed to write release zip: %w", err)
	}
	if err := zipFile.Close(); err != nil {
		return "", fmt.Errorf("failed to finish release zip: %w", err)
	}
	defer os.Remove(zipPath)

	tree := filepath.Join(u.WorkDir, fmt.Sprintf("archivesspace-docker-%s", tag))
	if err := os.RemoveAll(tree); err != nil {
		return "", fmt.Errorf("failed to remove existing %s: %w", tree, err)
	}
	if err := extractZip(zipPath, tree); err != nil {
		return "", err
	}
	return tree, nil
}

// rewriteReleaseConfig carries the local database name and public domain
// into the fresh release's .env and config.rb, which ship with upstream
// defaults.
func (u *Upgrader) rewriteReleaseConfig(tree string) error {
	dbName := u.Config.Database.Name
	domain := u.Config.Deployment.Domain

	envPath := filepath.Join(tree, ".env")
	if err := ReplaceConfigValue("MYSQL_DATABASE", "archivesspace", dbName, envPath); err != nil {
		return err
	}

	rbPath := filepath.Join(tree, "config", "config.rb")
	replacements := []struct{ key, old, new string }{
		{"AppConfig[:db_url]", "archivesspace", dbName},
		{"AppConfig[:oai_proxy_url]", "localhost", domain},
		{"AppConfig[:frontend_proxy_url]", "localhost", domain},
		{"AppConfig[:public_proxy_url]", "localhost", domain},
	}
	for _, r := range replacements {
		if err := ReplaceConfigValue(r.key, r.old, r.new, rbPath); err != nil {
			return err
		}
	}
	return nil
}

// stageBackup writes the given day's backup as plain SQL into the new
// tree's sql/ directory, where the release's database container loads it
// on first start. An upgrade restores today's data, not whatever backup
// happens to be newest in the store.
func (u *Upgrader) stageBackup(ctx context.Context, tree, date string) error {
	orch := &orchestrator.Orchestrator{Store: u.Store, Decryptor: u.Decryptor}
	artifact, err := orch.SelectArtifact(ctx, date)
	if err != nil {
		return err
	}

	stream, err := u.Store.Open(ctx, artifact)
	if err != nil {
		return fmt.Errorf("failed to open backup %s: %w", artifact.Name(), err)
	}
	sqlStream, err := restore.OpenSQLStream(stream, artifact.Name(), u.Decryptor)
	if err != nil {
		return err
	}
	defer sqlStream.Close()

	sqlDir := filepath.Join(tree, "sql")
	if err := os.MkdirAll(sqlDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", sqlDir, err)
	}

	name := artifact.Name()
	for _, ext := range []string{".age", ".gz"} {
		name = strings.TrimSuffix(name, ext)
	}
	dest := filepath.Join(sqlDir, name)
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, sqlStream); err != nil {
		out.Close()
		return fmt.Errorf("failed to stage backup: %w", err)
	}
	return out.Close()
}

// swapRelease points the deployment root symlink at the new tree.
func (u *Upgrader) swapRelease(tree string) error {
	root := u.Config.Deployment.Root
	if err := os.Remove(root); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove deployment link %s: %w", root, err)
	}
	if err := os.Symlink(tree, root); err != nil {
		return fmt.Errorf("failed to link %s -> %s: %w", root, tree, err)
	}
	return nil
}

func extractZip(zipPath, dest string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open release zip: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		// Upstream zips wrap everything in a single top-level directory.
		name := file.Name
		if i := strings.IndexByte(name, '/'); i >= 0 {
			name = name[i+1:]
		}
		if name == "" {
			continue
		}
		if strings.Contains(name, "..") {
			return fmt.Errorf("release zip contains unsafe path %q", file.Name)
		}

		target := filepath.Join(dest, name)
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
		}
		src, err := file.Open()
		if err != nil {
			return fmt.Errorf("failed to read %s from zip: %w", file.Name, err)
		}
		dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
		if err != nil {
			src.Close()
			return fmt.Errorf("failed to create %s: %w", target, err)
		}
		if _, err := io.Copy(dst, src); err != nil {
			src.Close()
			dst.Close()
			return fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}
		src.Close()
		if err := dst.Close(); err != nil {
			return fmt.Errorf("failed to finish %s: %w", target, err)
		}
	}
	return nil
}
