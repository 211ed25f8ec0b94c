package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kadirbelkuyu/pglifecycle/internal/config"

	_ "github.com/lib/pq"
)

type Connection struct {
	DB     *sql.DB
	Config *config.Config
}

// Info describes one database on the server.
type Info struct {
	Name     string
	Owner    string
	Encoding string
	Size     string
}

func NewConnection(ctx context.Context, cfg *config.Config) (*Connection, error) {
	db, err := sql.Open("postgres", cfg.GetConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}

	return &Connection{
		DB:     db,
		Config: cfg,
	}, nil
}

func (c *Connection) Close() error {
	return c.DB.Close()
}

func (c *Connection) GetDatabaseName() string {
	return c.Config.Database.Database
}

// ServerVersion returns the server_version setting, e.g. "16.2".
func (c *Connection) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := c.DB.QueryRowContext(ctx, "SHOW server_version").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to read server version: %w", err)
	}
	return version, nil
}

// ListDatabases returns the non-template databases on the server.
func (c *Connection) ListDatabases(ctx context.Context) ([]Info, error) {
	const query = `
		SELECT
			datname,
			pg_catalog.pg_get_userbyid(datdba) AS owner,
			pg_catalog.pg_encoding_to_char(encoding) AS encoding,
			pg_size_pretty(pg_database_size(datname)) AS size
		FROM pg_database
		WHERE datistemplate = false
		ORDER BY datname;
	`

	rows, err := c.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query databases: %w", err)
	}
	defer rows.Close()

	var databases []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.Name, &info.Owner, &info.Encoding, &info.Size); err != nil {
			return nil, fmt.Errorf("failed to read database info: %w", err)
		}
		databases = append(databases, info)
	}

	return databases, rows.Err()
}
