package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:studycentre.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/studycentre?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one writer; also keeps :memory: databases alive across the pool
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

// ensureSchema creates the catalog tables. Only the timestamp column type
// differs between drivers.
func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	ts := "INTEGER"
	if driver == DriverPostgres {
		ts = "BIGINT"
	}
	_, err := db.ExecContext(ctx, strings.ReplaceAll(catalogSchema, "{{ts}}", ts))
	return err
}

const catalogSchema = `
CREATE TABLE IF NOT EXISTS pages (
  id TEXT PRIMARY KEY,
  course TEXT NOT NULL DEFAULT '',
  module TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL,
  page_json TEXT NOT NULL,
  updated_at {{ts}} NOT NULL
);

CREATE INDEX IF NOT EXISTS pages_course_module ON pages(course, module);

CREATE TABLE IF NOT EXISTS mock_exams (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  exam_json TEXT NOT NULL,
  updated_at {{ts}} NOT NULL
);
`
