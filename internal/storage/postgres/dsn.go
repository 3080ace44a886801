package postgres

import (
	"fmt"
	"strings"

	"github.com/engdocs/docregister-backend/config"
)

// DSN returns the lib/pq keyword form of the connection settings. An explicit
// DB_DSN URL wins over the discrete fields.
func DSN(cfg *config.DatabaseConfig) string {
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		return cfg.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name,
	)
}
