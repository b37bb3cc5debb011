package timeparse

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time without a date. Shift templates store
// their boundaries as strings in a handful of formats; everything in the
// engine converts to this type before doing arithmetic.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// Accepted formats, tried in order. Full datetimes are accepted because
// older schedule rows stored "2024-01-15 08:00:00" instead of "08:00:00";
// only the clock portion is kept.
var layouts = []string{
	"15:04",
	"15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseTimeOfDay normalizes a shift-time string to a TimeOfDay.
// Anything outside the accepted formats is an error, not a fallback.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("unrecognized time format: %q", value)
}

// MinutesSinceMidnight returns the time as whole minutes past 00:00.
// Seconds are truncated; the engine works at minute precision.
func (t TimeOfDay) MinutesSinceMidnight() int {
	return t.Hour*60 + t.Minute
}

// At anchors the time-of-day onto a calendar date in the given location.
func (t TimeOfDay) At(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, t.Second, 0, loc)
}

// FromTime extracts the wall-clock portion of a timestamp.
func FromTime(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}
