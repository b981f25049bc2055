// Package database centralises sqlx connection helpers for the MySQL
// settings source.  The driver is go-sql-driver/mysql, which also works
// with MariaDB.
//
// Public entry points:
//
//	Open(ctx, dsn, password)   – pool sized for a read-mostly settings table.
//	WithPassword(dsn, pw)      – injects a secret into a DSN template.
//
// Open pings the database before returning so callers can fail fast
// during bootstrap.  Callers should Close() the returned *sqlx.DB.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Pool defaults.  The settings table is read once per poll, so a handful
// of connections is plenty.
const (
	MaxOpenConns    = 4
	MaxIdleConns    = 2
	ConnMaxLifetime = 30 * time.Minute
)

// Open returns a pinged *sqlx.DB.  When password is non-empty it replaces
// the password part of dsn.
func Open(ctx context.Context, dsn, password string) (*sqlx.DB, error) {
	full, err := WithPassword(dsn, password)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("mysql", full)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MaxIdleConns)
	db.SetConnMaxLifetime(ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping settings db: %w", err)
	}
	return db, nil
}

// WithPassword parses dsn and sets its password.  Column values are
// decoded by the loader, so parseTime is left as configured.
func WithPassword(dsn, password string) (string, error) {
	if password == "" {
		return dsn, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	cfg.Passwd = password
	return cfg.FormatDSN(), nil
}
