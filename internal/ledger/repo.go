package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// uniqueViolation is the Postgres SQLSTATE for constraint 23505.
const uniqueViolation = "23505"

// InTx runs fn inside a single transaction. Any error rolls everything back
// so a scan either fully transitions or not at all.
func (r *Repository) InTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(&sqlTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type sqlTx struct {
	tx *sql.Tx
}

// FindForUpdate returns the record for (student, day), locking it so a
// concurrent scan of the same badge waits for this transaction. Nil when no
// record exists yet.
func (t *sqlTx) FindForUpdate(ctx context.Context, studentID string, day time.Time) (*Record, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT id, student_id, day, time_in, time_out, created_at
		FROM attendance
		WHERE student_id = $1 AND day = $2
		FOR UPDATE
	`, studentID, day)
	var rec Record
	if err := row.Scan(&rec.ID, &rec.StudentID, &rec.Day, &rec.TimeIn, &rec.TimeOut, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Open creates the day's record with its time-in. A concurrent insert for the
// same (student, day) hits the unique index and surfaces as ErrDuplicateDay.
func (t *sqlTx) Open(ctx context.Context, studentID string, day time.Time, timeIn time.Time) (Record, error) {
	rec := Record{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Day:       day,
		TimeIn:    timeIn,
	}
	row := t.tx.QueryRowContext(ctx, `
		INSERT INTO attendance (id, student_id, day, time_in)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, rec.ID, rec.StudentID, rec.Day, rec.TimeIn)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Record{}, ErrDuplicateDay
		}
		return Record{}, err
	}
	return rec, nil
}

// Close sets time_out on an open record. The WHERE guard keeps a closed
// record closed no matter how the caller raced.
func (t *sqlTx) Close(ctx context.Context, recordID string, timeOut time.Time) (Record, error) {
	row := t.tx.QueryRowContext(ctx, `
		UPDATE attendance
		SET time_out = $2
		WHERE id = $1 AND time_out IS NULL
		RETURNING id, student_id, day, time_in, time_out, created_at
	`, recordID, timeOut)
	var rec Record
	if err := row.Scan(&rec.ID, &rec.StudentID, &rec.Day, &rec.TimeIn, &rec.TimeOut, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, t.closeConflict(ctx, recordID)
		}
		return Record{}, err
	}
	return rec, nil
}

// closeConflict tells ErrAlreadyClosed apart from ErrNotFound after a
// zero-row close.
func (t *sqlTx) closeConflict(ctx context.Context, recordID string) error {
	var n int
	if err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendance WHERE id = $1`, recordID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrAlreadyClosed
}

// Query returns attendance rows joined with students, newest day first and
// names ascending within a day for stable report output.
func (r *Repository) Query(ctx context.Context, f Filters) ([]Row, error) {
	query := `
		SELECT s.id, s.name, s.batch, s.position, s.department, s.school, s.barcode, s.created_at,
		       a.id, a.student_id, a.day, a.time_in, a.time_out, a.created_at
		FROM attendance a
		JOIN students s ON a.student_id = s.id`
	where, args := buildFilters(f)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY a.day DESC, s.name ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(
			&row.Student.ID, &row.Student.Name, &row.Student.Batch, &row.Student.Position,
			&row.Student.Department, &row.Student.School, &row.Student.Barcode, &row.Student.CreatedAt,
			&row.Record.ID, &row.Record.StudentID, &row.Record.Day,
			&row.Record.TimeIn, &row.Record.TimeOut, &row.Record.CreatedAt,
		); err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, rows.Err()
}

// buildFilters turns the optional equality filters into a WHERE clause with
// positional args. Absent filters add no constraint.
func buildFilters(f Filters) (string, []any) {
	clauses := []string{}
	args := []any{}
	add := func(expr string, val any) {
		clauses = append(clauses, fmt.Sprintf("%s = $%d", expr, len(args)+1))
		args = append(args, val)
	}
	if f.Batch != "" {
		add("s.batch", f.Batch)
	}
	if f.Position != "" {
		add("s.position", f.Position)
	}
	if f.Department != "" {
		add("s.department", f.Department)
	}
	if f.School != "" {
		add("s.school", f.School)
	}
	if f.Date != nil {
		add("a.day", Day(*f.Date))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	out := clauses[0]
	for i := 1; i < len(clauses); i++ {
		out += " AND " + clauses[i]
	}
	return out, args
}
