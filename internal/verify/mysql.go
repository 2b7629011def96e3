package verify

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/go-sql-driver/mysql"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/config"
)

// Connect opens a connection to the restored database through its
// host-published address. Used only for read-only sanity checks.
func Connect(cfg *config.Database) (*sql.DB, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("database.addr is not configured; cannot run post-restore checks")
	}
	password, ok := os.LookupEnv(cfg.PasswordEnv)
	if !ok {
		return nil, fmt.Errorf("database password environment variable %s not set", cfg.PasswordEnv)
	}

	dsn := mysql.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = password
	dsn.Net = "tcp"
	dsn.Addr = cfg.Addr
	dsn.DBName = cfg.Name

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	return db, nil
}
