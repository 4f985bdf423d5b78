package timefmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock(t *testing.T) {
	assert.Equal(t, "08:00 AM", Clock(time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, "05:30 PM", Clock(time.Date(2026, 8, 30, 17, 30, 0, 0, time.UTC)))
	assert.Equal(t, "12:00 AM", Clock(time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "12:00 PM", Clock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)))
}

func TestClockOrNA(t *testing.T) {
	assert.Equal(t, "N/A", ClockOrNA(nil))
	ts := time.Date(2026, 8, 30, 17, 0, 0, 0, time.UTC)
	assert.Equal(t, "05:00 PM", ClockOrNA(&ts))
}

func TestDateRoundTrip(t *testing.T) {
	ts := time.Date(2026, 8, 30, 14, 45, 0, 0, time.UTC)
	assert.Equal(t, "2026-08-30", Date(ts))

	parsed, err := ParseDate("2026-08-30")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-30", Date(parsed))

	_, err = ParseDate("30/08/2026")
	require.Error(t, err)
}
