package ledger

import (
	"context"
	"errors"
	"time"

	"attendance/internal/registry"
)

// Record is one attendance row: at most one per (student, day). It is open
// while time_out is null and closed once both timestamps are set; there is no
// third transition.
type Record struct {
	ID        string     `json:"id"`
	StudentID string     `json:"student_id"`
	Day       time.Time  `json:"day"`
	TimeIn    time.Time  `json:"time_in"`
	TimeOut   *time.Time `json:"time_out,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Open reports whether the record still awaits its time-out scan.
func (r Record) Open() bool { return r.TimeOut == nil }

var (
	// ErrNotFound means no record exists for the id.
	ErrNotFound = errors.New("attendance record not found")
	// ErrAlreadyClosed means the record already has a time_out.
	ErrAlreadyClosed = errors.New("attendance record already closed")
	// ErrDuplicateDay means a record for that (student, day) already exists.
	ErrDuplicateDay = errors.New("attendance record already exists for day")
)

// Filters narrows attendance queries. Zero values mean no constraint; Date is
// exact single-day equality.
type Filters struct {
	Batch      string
	Position   string
	Department string
	School     string
	Date       *time.Time
}

// Row is a ledger record joined with its student.
type Row struct {
	Student registry.Student `json:"student"`
	Record  Record           `json:"record"`
}

// Tx is the transactional view a scan works against. FindForUpdate must lock
// the returned row until the transaction ends.
type Tx interface {
	FindForUpdate(ctx context.Context, studentID string, day time.Time) (*Record, error)
	Open(ctx context.Context, studentID string, day time.Time, timeIn time.Time) (Record, error)
	Close(ctx context.Context, recordID string, timeOut time.Time) (Record, error)
}

// Store runs ledger work atomically: either the whole function's writes
// commit or none do.
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
	Query(ctx context.Context, f Filters) ([]Row, error)
}

// Day truncates a timestamp to its calendar date in the server's zone.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
