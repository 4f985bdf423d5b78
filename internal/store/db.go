package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults and ensures the schema exists.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(context.Background()); err != nil {
		return &DB{Client: db}, err
	}
	if err := Migrate(context.Background(), db); err != nil {
		return &DB{Client: db}, err
	}
	return &DB{Client: db}, nil
}

// Migrate creates the tables and uniqueness constraints the domain relies on.
// Barcode uniqueness and the one-record-per-student-per-day rule are enforced
// here, not in application code; the pre-checks above this layer are fast
// paths only.
func Migrate(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL,
		batch       TEXT NOT NULL,
		position    TEXT NOT NULL,
		department  TEXT NOT NULL,
		school      TEXT NOT NULL,
		barcode     TEXT NOT NULL UNIQUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS attendance (
		id          UUID PRIMARY KEY,
		student_id  UUID NOT NULL REFERENCES students(id),
		day         DATE NOT NULL,
		time_in     TIMESTAMPTZ NOT NULL,
		time_out    TIMESTAMPTZ,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (student_id, day)
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_day ON attendance(day);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
