package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap configuration for a deployment",
	Long: `Initializes aspace for a deployment by writing a default
'~/.aspace/config.yaml'. It prompts for the basic deployment facts and
leaves secrets to environment variables named in the config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Bootstrapping aspace configuration...")

		configPath, err := config.Path()
		if err != nil {
			return err
		}
		baseDir := filepath.Dir(configPath)

		if err := os.MkdirAll(baseDir, 0755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", baseDir, err)
		}
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("a config file already exists at %s", configPath)
		}

		reader := bufio.NewReader(os.Stdin)

		root, err := promptWithDefault(reader, "Deployment root (compose project directory)", "/opt/archivesspace")
		if err != nil {
			return err
		}
		dbName, err := promptWithDefault(reader, "Database name", "archivesspace")
		if err != nil {
			return err
		}
		domain, err := promptString(reader, "Public domain (for upgrades, optional)")
		if err != nil {
			return err
		}

		backupSource, err := promptWithDefault(reader, "Backup source type (local/s3)", "s3")
		if err != nil {
			return err
		}
		var backupCfg config.Backup
		backupCfg.Source = backupSource
		backupCfg.CacheDir = filepath.Join(baseDir, "backups")

		switch backupSource {
		case "local":
			path, err := promptString(reader, "Path to backup directory")
			if err != nil {
				return err
			}
			backupCfg.Local = &config.Local{Path: path}
		case "s3":
			bucket, err := promptString(reader, "S3 bucket")
			if err != nil {
				return err
			}
			prefix, err := promptString(reader, "S3 key prefix (optional)")
			if err != nil {
				return err
			}
			backupCfg.S3 = &config.S3{
				Bucket:       bucket,
				Region:       "us-west-2",
				AccessKeyEnv: "ASPACE_S3_KEY",
				SecretKeyEnv: "ASPACE_S3_SECRET",
				Prefix:       prefix,
			}
		default:
			return fmt.Errorf("unsupported backup source: %s", backupSource)
		}

		var encryptionCfg *config.Encryption
		useEncryption, err := promptWithDefault(reader, "Are the backups age-encrypted? (yes/no)", "no")
		if err != nil {
			return err
		}
		if strings.ToLower(useEncryption) == "yes" {
			keyPath, err := promptWithDefault(reader, "Path to age private key", filepath.Join(baseDir, "keys", "backup.key"))
			if err != nil {
				return err
			}
			encryptionCfg = &config.Encryption{
				Method:         "age",
				PrivateKeyPath: keyPath,
			}
		}

		cfg := config.Config{
			Version: 1,
			Deployment: config.Deployment{
				Root:         root,
				Domain:       domain,
				AppContainer: "archivesspace",
			},
			Database: config.Database{
				Name:        dbName,
				Container:   "mysql",
				User:        "as",
				PasswordEnv: "ASPACE_DB_PASSWORD",
				Addr:        "127.0.0.1:3306",
			},
			Backup:     backupCfg,
			Encryption: encryptionCfg,
			Index: config.Index{
				SolrURL: "http://localhost:8983/solr",
				Volumes: []string{"archivesspace_app-data", "archivesspace_solr-data"},
			},
			CLI: config.CLI{
				ReportDir:          filepath.Join(baseDir, "reports"),
				ResetAdminPassword: true,
				TimeoutMinutes:     30,
			},
		}

		yamlData, err := yaml.Marshal(&cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}

		if err := os.WriteFile(configPath, yamlData, 0644); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		fmt.Printf("✓ Wrote config to %s\n", configPath)
		fmt.Println("\nReview the config and provide secrets via the named environment variables.")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// promptString asks the user for input without a default value.
func promptString(reader *bufio.Reader, label string) (string, error) {
	fmt.Printf("%s: ", label)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// promptWithDefault asks the user for input, providing a default if input is empty.
func promptWithDefault(reader *bufio.Reader, label, defaultValue string) (string, error) {
	fmt.Printf("%s (%s): ", label, defaultValue)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue, nil
	}
	return input, nil
}
