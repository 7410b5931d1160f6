// Package database opens the SQL connection pool and creates the schema.
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to url. postgres:// and postgresql:// go to Postgres;
// sqlite://<path>, file: URIs and :memory: go to SQLite.
func Open(ctx context.Context, url string) (*sqlx.DB, error) {
	driver, dsn, err := driverFor(url)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database.Open: %w", err)
	}
	if driver == "sqlite3" {
		// one connection keeps :memory: databases alive and serializes writers
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database.Open: ping: %w", err)
	}
	return db, nil
}

func driverFor(url string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgres", url, nil
	case strings.HasPrefix(url, "sqlite://"):
		return "sqlite3", sqliteDSN(strings.TrimPrefix(url, "sqlite://")), nil
	case strings.HasPrefix(url, "file:"), strings.HasPrefix(url, ":memory:"):
		return "sqlite3", sqliteDSN(url), nil
	default:
		return "", "", fmt.Errorf("database.Open: unsupported database url %q", url)
	}
}

// sqliteDSN turns on foreign keys, which SQLite leaves off per connection,
// so review rows follow their home on delete.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}
