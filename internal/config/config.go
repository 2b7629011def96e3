package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissing is wrapped by Validate for every absent required setting.
// Detected before any side-effecting step runs.
var ErrMissing = fmt.Errorf("required configuration missing")

// Config matches the structure of the config.yaml file.
type Config struct {
	Version    int         `yaml:"version"`
	Deployment Deployment  `yaml:"deployment"`
	Database   Database    `yaml:"database"`
	Backup     Backup      `yaml:"backup"`
	Encryption *Encryption `yaml:"encryption,omitempty"`
	Index      Index       `yaml:"index"`
	CLI        CLI         `yaml:"cli"`
}

// Deployment describes the docker compose deployment under management.
type Deployment struct {
	// Root is the compose project directory; during upgrades it is a
	// symlink pointing at the currently deployed release tree.
	Root       string `yaml:"root"`
	ReleaseTag string `yaml:"release_tag"`
	Domain     string `yaml:"domain"`
	// ReleasesDir is where upgrade downloads and keeps release trees;
	// Root symlinks into it. Defaults to the directory containing Root.
	ReleasesDir string `yaml:"releases_dir"`
	// AppContainer is the ArchivesSpace application container name.
	AppContainer string `yaml:"app_container"`
}

type Database struct {
	Name        string `yaml:"name"`
	Container   string `yaml:"container"`
	User        string `yaml:"user"`
	PasswordEnv string `yaml:"password_env"`
	// Addr is the host-published address used for post-restore checks.
	Addr string `yaml:"addr"`
}

type Local struct {
	Path string `yaml:"path"`
}

type S3 struct {
	Endpoint     string `yaml:"endpoint"`
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
	Prefix       string `yaml:"prefix"`
}

type Backup struct {
	Source string `yaml:"source"`
	Local  *Local `yaml:"local,omitempty"`
	S3     *S3    `yaml:"s3,omitempty"`
	// CacheDir keeps a local copy of every artifact downloaded from S3.
	CacheDir string `yaml:"cache_dir"`
}

type Encryption struct {
	Method         string `yaml:"method"`
	PrivateKeyPath string `yaml:"private_key_path"`
}

type Index struct {
	SolrURL string `yaml:"solr_url"`
	// StateDirs are the indexer state directories inside the app container;
	// clearing them makes the indexer re-sync from the database.
	StateDirs []string `yaml:"state_dirs"`
	// Volumes are the docker volumes removed on a full rebuild.
	Volumes []string `yaml:"volumes"`
}

// DataVolumes returns the docker volumes holding application and index
// data, defaulting to the names the upstream compose file declares.
func (i *Index) DataVolumes() []string {
	if len(i.Volumes) > 0 {
		return i.Volumes
	}
	return []string{"archivesspace_app-data", "archivesspace_solr-data"}
}

type CLI struct {
	ReportDir string `yaml:"report_dir"`
	// ResetAdminPassword resets the admin account to a known password
	// after every restore, since backups carry production credentials.
	ResetAdminPassword bool `yaml:"reset_admin_password"`
	TimeoutMinutes     int  `yaml:"timeout_minutes"`
}

// Path returns the default config file location.
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".aspace", "config.yaml"), nil
}

// Load finds, reads, parses, and validates the configuration file.
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at %s. Please run 'aspace init'", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse unmarshals and validates raw YAML configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every absent required setting in a single error so the
// operator can fix the file in one pass.
func (c *Config) Validate() error {
	var missing []string

	if c.Deployment.Root == "" {
		missing = append(missing, "deployment.root")
	}
	if c.Deployment.AppContainer == "" {
		missing = append(missing, "deployment.app_container")
	}
	if c.Database.Name == "" {
		missing = append(missing, "database.name")
	}
	if c.Database.Container == "" {
		missing = append(missing, "database.container")
	}
	if c.Database.User == "" {
		missing = append(missing, "database.user")
	}
	if c.Database.PasswordEnv == "" {
		missing = append(missing, "database.password_env")
	}

	switch c.Backup.Source {
	case "local":
		if c.Backup.Local == nil || c.Backup.Local.Path == "" {
			missing = append(missing, "backup.local.path")
		}
	case "s3":
		if c.Backup.S3 == nil {
			missing = append(missing, "backup.s3")
		} else {
			if c.Backup.S3.Bucket == "" {
				missing = append(missing, "backup.s3.bucket")
			}
			if c.Backup.S3.AccessKeyEnv == "" {
				missing = append(missing, "backup.s3.access_key_env")
			}
			if c.Backup.S3.SecretKeyEnv == "" {
				missing = append(missing, "backup.s3.secret_key_env")
			}
		}
	case "":
		missing = append(missing, "backup.source")
	default:
		return fmt.Errorf("unsupported backup source type: %s", c.Backup.Source)
	}

	if c.Index.SolrURL == "" {
		missing = append(missing, "index.solr_url")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}
