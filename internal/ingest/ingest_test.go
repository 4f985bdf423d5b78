package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance/internal/queue"
	"attendance/internal/registry"
)

const roster = `Name,Batch,Position,Department,School
Jane Doe,2026,Intern,Engineering,State U
John Roe , 2026 ,Intern,Engineering,State U
,,,,
Mary Major,2025,Staff,Science,Tech High
`

func TestParseRoster(t *testing.T) {
	rows, err := ParseRoster(strings.NewReader(roster))
	require.NoError(t, err)
	require.Len(t, rows, 3, "fully empty rows are skipped")

	assert.Equal(t, "Jane Doe", rows[0].Name)
	assert.Equal(t, "John Roe", rows[1].Name, "cell whitespace is trimmed")
	assert.Equal(t, "2026", rows[1].Batch)
	assert.Equal(t, "Tech High", rows[2].School)
	assert.Empty(t, rows[0].Barcode)
}

func TestParseRosterWithBarcodeColumn(t *testing.T) {
	src := "Name,Batch,Position,Department,School,Barcode\nJane Doe,2026,Intern,Engineering,State U,X1\n"
	rows, err := ParseRoster(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "X1", rows[0].Barcode)
}

func TestParseRosterMissingColumn(t *testing.T) {
	src := "Name,Batch,Position,School\nJane Doe,2026,Intern,State U\n"
	_, err := ParseRoster(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Department")
}

type stubCreator struct {
	created []registry.NewStudent
	failAt  int // 1-based row index to fail at, 0 = never
}

func (s *stubCreator) CreateStudent(ctx context.Context, in registry.NewStudent) (registry.Student, error) {
	if s.failAt > 0 && len(s.created)+1 == s.failAt {
		return registry.Student{}, registry.ErrDuplicateBarcode
	}
	s.created = append(s.created, in)
	return registry.Student{
		ID:      "id-" + in.Name,
		Name:    in.Name,
		Barcode: "BC-" + in.Name,
	}, nil
}

func TestIngestCreatesAndQueuesBadges(t *testing.T) {
	creator := &stubCreator{}
	q := queue.NewInMemory(8)
	svc := NewService(creator, q)

	rows, err := ParseRoster(strings.NewReader(roster))
	require.NoError(t, err)

	students, err := svc.Ingest(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, students, 3)
	require.Len(t, creator.created, 3)

	msgs, err := q.Consume(context.Background())
	require.NoError(t, err)
	for _, want := range students {
		msg := <-msgs
		assert.Equal(t, queue.TypeBadge, msg.Type)
		assert.Equal(t, want.ID, string(msg.Body))
	}
}

func TestIngestValidatesBeforeCreating(t *testing.T) {
	creator := &stubCreator{}
	svc := NewService(creator, nil)

	rows := []registry.NewStudent{
		{Name: "Jane Doe", Batch: "2026", Position: "Intern", Department: "Engineering", School: "State U"},
		{Name: "John Roe", Batch: "2026", Position: "Intern", Department: "", School: "State U"},
	}
	_, err := svc.Ingest(context.Background(), rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Empty(t, creator.created, "nothing is created when any row is invalid")
}

func TestIngestSurfacesCreateErrorWithRow(t *testing.T) {
	creator := &stubCreator{failAt: 2}
	svc := NewService(creator, nil)

	rows := []registry.NewStudent{
		{Name: "Jane Doe", Batch: "2026", Position: "Intern", Department: "Engineering", School: "State U"},
		{Name: "John Roe", Batch: "2026", Position: "Intern", Department: "Engineering", School: "State U"},
	}
	created, err := svc.Ingest(context.Background(), rows)
	require.ErrorIs(t, err, registry.ErrDuplicateBarcode)
	assert.Contains(t, err.Error(), "row 2")
	assert.Len(t, created, 1)
}
