package registry

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository is the Postgres-backed Store.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// uniqueViolation is the Postgres SQLSTATE for constraint 23505.
const uniqueViolation = "23505"

// Insert writes a new student. A barcode collision surfaces as
// ErrDuplicateBarcode so callers can retry with a fresh candidate.
func (r *Repository) Insert(ctx context.Context, s Student) (Student, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO students (id, name, batch, position, department, school, barcode)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, s.ID, s.Name, s.Batch, s.Position, s.Department, s.School, s.Barcode)
	if err := row.Scan(&s.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Student{}, ErrDuplicateBarcode
		}
		return Student{}, err
	}
	return s, nil
}

// BarcodeExists reports whether any student already holds the barcode.
func (r *Repository) BarcodeExists(ctx context.Context, barcode string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM students WHERE barcode = $1`, barcode).Scan(&n)
	return n > 0, err
}

// FindByBarcode returns the student holding the barcode, or nil.
func (r *Repository) FindByBarcode(ctx context.Context, barcode string) (*Student, error) {
	return r.findOne(ctx, `WHERE barcode = $1`, barcode)
}

// FindByID returns the student by id, or nil.
func (r *Repository) FindByID(ctx context.Context, id string) (*Student, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *Repository) findOne(ctx context.Context, where string, arg any) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, batch, position, department, school, barcode, created_at
		FROM students `+where, arg)
	var s Student
	if err := row.Scan(&s.ID, &s.Name, &s.Batch, &s.Position, &s.Department, &s.School, &s.Barcode, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// List returns all students ordered by name.
func (r *Repository) List(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, batch, position, department, school, barcode, created_at
		FROM students
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Batch, &s.Position, &s.Department, &s.School, &s.Barcode, &s.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// FilterOptions returns the distinct attribute values present on the roster.
func (r *Repository) FilterOptions(ctx context.Context) (FilterOptions, error) {
	var opts FilterOptions
	for _, q := range []struct {
		query string
		dest  *[]string
	}{
		{`SELECT DISTINCT batch FROM students ORDER BY batch`, &opts.Batches},
		{`SELECT DISTINCT position FROM students ORDER BY position`, &opts.Positions},
		{`SELECT DISTINCT department FROM students ORDER BY department`, &opts.Departments},
		{`SELECT DISTINCT school FROM students ORDER BY school`, &opts.Schools},
	} {
		vals, err := r.distinct(ctx, q.query)
		if err != nil {
			return FilterOptions{}, err
		}
		*q.dest = vals
	}
	return opts, nil
}

func (r *Repository) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vals []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, rows.Err()
}
