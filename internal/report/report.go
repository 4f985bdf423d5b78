package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"attendance/internal/ledger"
	"attendance/internal/timefmt"
)

// Querier is the read side of the ledger.
type Querier interface {
	Query(ctx context.Context, f ledger.Filters) ([]ledger.Row, error)
}

// Service answers filtered attendance queries and renders the downloadable
// report artifact.
type Service struct {
	q Querier
}

// NewService creates a report service over the ledger.
func NewService(q Querier) *Service {
	return &Service{q: q}
}

// Attendance returns the filtered joined rows, date descending then name
// ascending.
func (s *Service) Attendance(ctx context.Context, f ledger.Filters) ([]ledger.Row, error) {
	return s.q.Query(ctx, f)
}

// Export is the downloadable report: the filtered rows rendered to CSV with a
// trailing summary row counting distinct students.
type Export struct {
	Filename         string
	ContentType      string
	Data             []byte
	Rows             int
	DistinctStudents int
}

// Export renders the filtered row set. The summary counts distinct student
// identities, not rows: a student appearing on several dates counts once.
func (s *Service) Export(ctx context.Context, f ledger.Filters, now time.Time) (Export, error) {
	rows, err := s.q.Query(ctx, f)
	if err != nil {
		return Export{}, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Name", "Batch", "Position", "Department", "School", "Date", "Time In", "Time Out"}); err != nil {
		return Export{}, err
	}

	seen := map[string]struct{}{}
	for _, row := range rows {
		seen[row.Student.ID] = struct{}{}
		rec := []string{
			row.Student.Name,
			row.Student.Batch,
			row.Student.Position,
			row.Student.Department,
			row.Student.School,
			timefmt.Date(row.Record.Day),
			timefmt.Clock(row.Record.TimeIn),
			timefmt.ClockOrNA(row.Record.TimeOut),
		}
		if err := w.Write(rec); err != nil {
			return Export{}, err
		}
	}
	if err := w.Write([]string{"Total Students:", fmt.Sprintf("%d", len(seen))}); err != nil {
		return Export{}, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Export{}, err
	}

	return Export{
		Filename:         fmt.Sprintf("attendance_report_%s.csv", now.Format("20060102")),
		ContentType:      "text/csv",
		Data:             buf.Bytes(),
		Rows:             len(rows),
		DistinctStudents: len(seen),
	}, nil
}
