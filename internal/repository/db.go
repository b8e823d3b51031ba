package repository

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/advansoftware/finwise-installments/internal/config"
)

//go:embed schema.sql
var schema string

func init() {
	// modernc registers itself as "sqlite"; queries are written with ? and rebound
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open connects to the configured database and applies the pool settings
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Driver, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.Driver == config.DriverSQLite {
		// one writer at a time; keeping the connection idle also keeps a
		// :memory: database alive
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	return db, nil
}

// Migrate creates the tables if they do not exist yet. SQLite gives NUMERIC
// columns REAL affinity, so money is kept there as the decimal's text form.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	ddl := schema
	if db.DriverName() == config.DriverSQLite {
		ddl = strings.ReplaceAll(ddl, "NUMERIC(18,2)", "TEXT")
	}

	for _, statement := range strings.Split(ddl, ";") {
		statement = strings.TrimSpace(statement)
		if statement == "" {
			continue
		}

		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

// utc normalizes a time read from or written to the database
func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
