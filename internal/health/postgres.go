package health

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresChecker checks the audit database over database/sql, independently
// of the pgx pool the repository uses
type PostgresChecker struct {
	db *sql.DB
}

// NewPostgresChecker opens a single-connection handle to dsn. The connection
// is made lazily on the first check.
func NewPostgresChecker(dsn string) (*PostgresChecker, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &PostgresChecker{db: db}, nil
}

func (c *PostgresChecker) Name() string { return "postgres" }

// HealthCheck runs a trivial query
func (c *PostgresChecker) HealthCheck(ctx context.Context) error {
	var one int
	if err := c.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	return nil
}

// Close closes the handle
func (c *PostgresChecker) Close() error {
	return c.db.Close()
}
