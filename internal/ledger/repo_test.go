package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayTruncation(t *testing.T) {
	ts := time.Date(2026, 8, 30, 23, 59, 59, 500, time.UTC)
	day := Day(ts)
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), day)
	assert.Equal(t, day, Day(day))
}

func TestBuildFiltersEmpty(t *testing.T) {
	where, args := buildFilters(Filters{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildFiltersSingle(t *testing.T) {
	where, args := buildFilters(Filters{Department: "Engineering"})
	assert.Equal(t, "s.department = $1", where)
	assert.Equal(t, []any{"Engineering"}, args)
}

func TestBuildFiltersAllPositional(t *testing.T) {
	date := time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC)
	where, args := buildFilters(Filters{
		Batch:      "2026",
		Position:   "Intern",
		Department: "Engineering",
		School:     "State U",
		Date:       &date,
	})
	assert.Equal(t, "s.batch = $1 AND s.position = $2 AND s.department = $3 AND s.school = $4 AND a.day = $5", where)
	assert.Equal(t, []any{"2026", "Intern", "Engineering", "State U", Day(date)}, args)
}

func TestBuildFiltersDateNormalizedToDay(t *testing.T) {
	date := time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC)
	_, args := buildFilters(Filters{Date: &date})
	assert.Equal(t, []any{time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)}, args)
}

func TestRecordOpen(t *testing.T) {
	rec := Record{TimeIn: time.Now()}
	assert.True(t, rec.Open())
	out := time.Now()
	rec.TimeOut = &out
	assert.False(t, rec.Open())
}
