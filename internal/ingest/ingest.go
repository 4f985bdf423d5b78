// Package ingest turns uploaded roster files into registered students. The
// registry stays the only path that assigns barcodes; this layer just
// validates shape.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"attendance/internal/queue"
	"attendance/internal/registry"
)

// requiredColumns must all be present in the roster header. A Barcode column
// is optional; when present its values are treated as pre-assigned.
var requiredColumns = []string{"Name", "Batch", "Position", "Department", "School"}

// ParseRoster reads a CSV roster into candidate rows. Header names are
// matched after trimming; rows that are entirely empty are skipped.
func ParseRoster(r io.Reader) ([]registry.NewStudent, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1 // tolerate ragged rows; missing cells read as empty

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, col := range header {
		idx[strings.TrimSpace(col)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []registry.NewStudent
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := registry.NewStudent{
			Name:       field(rec, "Name"),
			Batch:      field(rec, "Batch"),
			Position:   field(rec, "Position"),
			Department: field(rec, "Department"),
			School:     field(rec, "School"),
			Barcode:    field(rec, "Barcode"),
		}
		if row == (registry.NewStudent{}) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Creator is the registry's student creation path.
type Creator interface {
	CreateStudent(ctx context.Context, in registry.NewStudent) (registry.Student, error)
}

// Service registers roster rows and queues badge-render jobs for them.
type Service struct {
	reg Creator
	q   queue.Queue
}

// NewService creates an ingestion service. The queue may be nil when no badge
// rendering is wired (tests, one-off imports).
func NewService(reg Creator, q queue.Queue) *Service {
	return &Service{reg: reg, q: q}
}

// Ingest validates every row up front, then creates the students. Validation
// errors carry the 1-based row number so staff can fix the spreadsheet.
func (s *Service) Ingest(ctx context.Context, rows []registry.NewStudent) ([]registry.Student, error) {
	for i, row := range rows {
		if strings.TrimSpace(row.Name) == "" ||
			strings.TrimSpace(row.Batch) == "" ||
			strings.TrimSpace(row.Position) == "" ||
			strings.TrimSpace(row.Department) == "" ||
			strings.TrimSpace(row.School) == "" {
			return nil, fmt.Errorf("row %d: name, batch, position, department and school are required", i+1)
		}
	}

	created := make([]registry.Student, 0, len(rows))
	for i, row := range rows {
		st, err := s.reg.CreateStudent(ctx, row)
		if err != nil {
			return created, fmt.Errorf("row %d: %w", i+1, err)
		}
		created = append(created, st)
		s.enqueueBadge(ctx, st)
	}
	return created, nil
}

func (s *Service) enqueueBadge(ctx context.Context, st registry.Student) {
	if s.q == nil {
		return
	}
	if err := s.q.Publish(ctx, queue.Message{Type: queue.TypeBadge, Body: []byte(st.ID)}); err != nil {
		log.Printf("badge job enqueue failed for %s: %v", st.ID, err)
	}
}
