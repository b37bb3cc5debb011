package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay_HourMinute(t *testing.T) {
	tod, err := ParseTimeOfDay("08:30")
	require.NoError(t, err)
	assert.Equal(t, 8, tod.Hour)
	assert.Equal(t, 30, tod.Minute)
	assert.Equal(t, 0, tod.Second)
	assert.Equal(t, 510, tod.MinutesSinceMidnight())
}

func TestParseTimeOfDay_HourMinuteSecond(t *testing.T) {
	tod, err := ParseTimeOfDay("17:45:30")
	require.NoError(t, err)
	assert.Equal(t, 17, tod.Hour)
	assert.Equal(t, 45, tod.Minute)
	assert.Equal(t, 30, tod.Second)
	// Seconds do not count toward minute arithmetic
	assert.Equal(t, 17*60+45, tod.MinutesSinceMidnight())
}

func TestParseTimeOfDay_FullDatetime(t *testing.T) {
	tod, err := ParseTimeOfDay("2024-01-15 22:00:00")
	require.NoError(t, err)
	assert.Equal(t, 22, tod.Hour)
	assert.Equal(t, 0, tod.Minute)
}

func TestParseTimeOfDay_Invalid(t *testing.T) {
	_, err := ParseTimeOfDay("jam delapan pagi")
	assert.Error(t, err)

	_, err = ParseTimeOfDay("")
	assert.Error(t, err)
}

func TestTimeOfDay_At(t *testing.T) {
	tod := TimeOfDay{Hour: 8, Minute: 0}
	date := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	anchored := tod.At(date, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC), anchored)
}

func TestFromTime(t *testing.T) {
	ts := time.Date(2024, 6, 10, 13, 15, 59, 0, time.UTC)
	tod := FromTime(ts)
	assert.Equal(t, TimeOfDay{Hour: 13, Minute: 15, Second: 59}, tod)
}
