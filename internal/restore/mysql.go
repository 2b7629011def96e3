package restore

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/compose"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/config"
)

// MySQLService restores backups by piping SQL into the mysql client inside
// the deployment's running database container.
type MySQLService struct {
	runner    *compose.Runner
	container string
	user      string
	password  string
	database  string
}

// NewMySQLService creates a restorer for the configured database container.
// The password is resolved from the environment variable named in config.
func NewMySQLService(runner *compose.Runner, cfg *config.Database) (*MySQLService, error) {
	password, ok := os.LookupEnv(cfg.PasswordEnv)
	if !ok {
		return nil, fmt.Errorf("database password environment variable %s not set", cfg.PasswordEnv)
	}
	return &MySQLService{
		runner:    runner,
		container: cfg.Container,
		user:      cfg.User,
		password:  password,
		database:  cfg.Name,
	}, nil
}

// Restore streams the SQL dump into `mysql` inside the container and waits
// for it to finish. mysqldump output restores all-or-nothing only to the
// extent the dump itself is transactional; callers must not retry on
// failure without operator review.
func (s *MySQLService) Restore(ctx context.Context, backup io.Reader) (*Result, error) {
	res, err := s.runner.Exec(ctx, s.container, backup,
		"mysql", "-u"+s.user, "-p"+s.password, s.database)
	if err != nil {
		return nil, fmt.Errorf("failed to run mysql client in container %s: %w", s.container, err)
	}
	return &Result{ExitCode: res.ExitCode, Output: res.Output}, nil
}

// ResetAdminPassword resets the admin account inside the application
// container. Backups carry production credentials; staging and test
// deployments reset them to a known value right after restoring.
func ResetAdminPassword(ctx context.Context, runner *compose.Runner, appContainer string) error {
	res, err := runner.Exec(ctx, appContainer, nil,
		"/archivesspace/scripts/password-reset.sh", "admin", "admin")
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("password reset failed (exit %d):\n%s", res.ExitCode, res.Output)
	}
	return nil
}
